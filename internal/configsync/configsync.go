package configsync

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/settings"
	"github.com/compactd/compactd/pkg/metrics"
)

// Synchronizer keeps the engine's automation scheduler aligned with the
// user's settings. It only ever reacts to settings emissions; until the
// store publishes its first document nothing is pushed, so the engine keeps
// whatever state it had.
type Synchronizer struct {
	engine bridge.Engine
	store  *settings.Store

	// prev is the snapshot of the last successfully synced automation
	// fields. Only Run's goroutine touches it.
	prev *automationFields
}

func NewSynchronizer(engine bridge.Engine, store *settings.Store) *Synchronizer {
	return &Synchronizer{engine: engine, store: store}
}

// Run consumes settings emissions until ctx is cancelled. The first
// emission always syncs; afterwards only changes to automation related
// fields reach the engine.
func (c *Synchronizer) Run(ctx context.Context) {
	sub := c.store.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-sub.Updates():
			if !ok {
				return
			}
			c.sync(ctx, doc)
		}
	}
}

func (c *Synchronizer) sync(ctx context.Context, doc settings.Settings) {
	log := zap.S().Named("configsync")

	fields := automationFieldsOf(doc)
	if c.prev != nil && fields.equal(*c.prev) {
		return
	}

	if !fields.enabled {
		// no config push when turning off, the engine keeps its last
		// known document
		if err := c.engine.StopAutomation(ctx); err != nil {
			log.Warnw("stopping automation failed", "error", err)
			return
		}
		c.prev = &fields
		log.Info("automation stopped")
		return
	}

	cfg := BuildConfig(doc)
	if err := c.engine.PushAutomationConfig(ctx, cfg); err != nil {
		metrics.IncConfigPush("error")
		log.Warnw("config push failed", "error", err)
		// prev stays untouched so the next emission retries even when
		// nothing changed again
		return
	}
	metrics.IncConfigPush("success")

	if err := c.engine.StartAutomation(ctx); err != nil {
		log.Warnw("starting automation failed", "error", err)
		return
	}

	c.prev = &fields
	log.Infow("automation config synced",
		"cpuThreshold", cfg.CPUThresholdPercent,
		"idleSeconds", cfg.IdleDurationSeconds,
		"cooldownSeconds", cfg.CooldownSeconds,
		"algorithm", cfg.Algorithm)
}

// BuildConfig translates user settings into the complete document the
// engine expects. Durations become seconds, list fields are never nil and
// an unset algorithm falls back to the engine default.
func BuildConfig(doc settings.Settings) bridge.AutomationConfig {
	return bridge.AutomationConfig{
		CPUThresholdPercent: doc.CPUThresholdPercent,
		IdleDurationSeconds: doc.IdleDurationMinutes * 60,
		CooldownSeconds:     doc.CooldownMinutes * 60,
		WatchPaths:          append([]string{}, doc.CustomFolders...),
		ExcludedPaths:       append([]string{}, doc.ExcludedPaths...),
		Algorithm:           bridge.StringToAlgorithm(doc.Algorithm),
	}
}

// automationFields is the subset of settings the engine cares about. UI
// preferences such as the theme are deliberately absent so they can never
// trigger a push.
type automationFields struct {
	enabled   bool
	cpu       int
	idleMin   int
	cooldown  int
	folders   []string
	excluded  []string
	algorithm string
}

func automationFieldsOf(doc settings.Settings) automationFields {
	return automationFields{
		enabled:   doc.AutoCompressEnabled,
		cpu:       doc.CPUThresholdPercent,
		idleMin:   doc.IdleDurationMinutes,
		cooldown:  doc.CooldownMinutes,
		folders:   slices.Clone(doc.CustomFolders),
		excluded:  slices.Clone(doc.ExcludedPaths),
		algorithm: doc.Algorithm,
	}
}

func (f automationFields) equal(other automationFields) bool {
	return f.enabled == other.enabled &&
		f.cpu == other.cpu &&
		f.idleMin == other.idleMin &&
		f.cooldown == other.cooldown &&
		f.algorithm == other.algorithm &&
		slices.Equal(f.folders, other.folders) &&
		slices.Equal(f.excluded, other.excluded)
}
