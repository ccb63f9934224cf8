package settings

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/compactd/compactd/internal/bridge"
)

const (
	// DefaultCPUThresholdPercent is the busy-CPU cutoff above which automation waits.
	DefaultCPUThresholdPercent = 30
	// DefaultIdleDurationMinutes is how long the machine must stay idle before automation acts.
	DefaultIdleDurationMinutes = 5
	// DefaultCooldownMinutes is the pause between two automated compression runs.
	DefaultCooldownMinutes = 15
)

var validate = validator.New()

// Settings is the user settings document as the UI edits it. Automation
// related fields feed the engine through the config synchronizer; the
// remaining fields are UI preferences and must never trigger a config push.
type Settings struct {
	AutoCompressEnabled bool     `json:"autoCompressEnabled"`
	CPUThresholdPercent int      `json:"cpuThresholdPercent" validate:"gte=0,lte=100"`
	IdleDurationMinutes int      `json:"idleDurationMinutes" validate:"gte=0"`
	CooldownMinutes     int      `json:"cooldownMinutes" validate:"gte=0"`
	CustomFolders       []string `json:"customFolders"`
	ExcludedPaths       []string `json:"excludedPaths"`
	Algorithm           string   `json:"algorithm" validate:"omitempty,oneof=xpress4k xpress8k xpress16k lzx"`

	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

func NewDefault() Settings {
	return Settings{
		AutoCompressEnabled:  false,
		CPUThresholdPercent:  DefaultCPUThresholdPercent,
		IdleDurationMinutes:  DefaultIdleDurationMinutes,
		CooldownMinutes:      DefaultCooldownMinutes,
		CustomFolders:        []string{},
		ExcludedPaths:        []string{},
		Algorithm:            string(bridge.DefaultAlgorithm),
		Theme:                "dark",
		NotificationsEnabled: true,
	}
}

// Validate checks ranges and the algorithm name.
func (s *Settings) Validate() error {
	return validate.Struct(s)
}

func (s *Settings) String() string {
	contents, err := json.Marshal(s)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}
