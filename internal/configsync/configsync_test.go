package configsync_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/bridge/fake"
	"github.com/compactd/compactd/internal/configsync"
	"github.com/compactd/compactd/internal/settings"
)

func TestConfigSync(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ConfigSync Suite")
}

var _ = Describe("Synchronizer", func() {
	var (
		eng    *fake.Engine
		store  *settings.Store
		ctx    context.Context
		cancel context.CancelFunc
	)

	pushCount := func() int {
		return len(eng.PushedConfigs())
	}

	enable := func(mutate func(*settings.Settings)) {
		Expect(store.Load()).To(Succeed())
		_, err := store.Update(func(s *settings.Settings) {
			s.AutoCompressEnabled = true
			if mutate != nil {
				mutate(s)
			}
		})
		Expect(err).ToNot(HaveOccurred())
	}

	BeforeEach(func() {
		eng = fake.NewEngine()
		store = settings.NewStore(filepath.Join(GinkgoT().TempDir(), "settings.yaml"))
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		store.Close()
	})

	It("does nothing until settings are known", func() {
		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)

		Consistently(pushCount, "150ms").Should(BeZero())
		Expect(eng.AutomationStops()).To(BeZero())

		Expect(store.Load()).To(Succeed())

		// defaults ship with automation off, so the first emission stops
		// the engine and pushes nothing
		Eventually(eng.AutomationStops).Should(Equal(1))
		Expect(pushCount()).To(BeZero())
	})

	It("pushes the full document and starts automation when enabled", func() {
		enable(func(s *settings.Settings) {
			s.CustomFolders = []string{"/library/steam"}
		})

		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)

		Eventually(pushCount).Should(Equal(1))
		Eventually(eng.AutomationStarts).Should(Equal(1))

		cfg := eng.PushedConfigs()[0]
		Expect(cfg.CPUThresholdPercent).To(Equal(settings.DefaultCPUThresholdPercent))
		Expect(cfg.IdleDurationSeconds).To(Equal(settings.DefaultIdleDurationMinutes * 60))
		Expect(cfg.CooldownSeconds).To(Equal(settings.DefaultCooldownMinutes * 60))
		Expect(cfg.WatchPaths).To(Equal([]string{"/library/steam"}))
		Expect(cfg.ExcludedPaths).ToNot(BeNil())
		Expect(cfg.ExcludedPaths).To(BeEmpty())
		Expect(cfg.Algorithm).To(Equal(bridge.AlgorithmXpress8K))
	})

	It("converts minutes to seconds and falls back to the default algorithm", func() {
		enable(func(s *settings.Settings) {
			s.IdleDurationMinutes = 2
			s.CooldownMinutes = 1
			s.Algorithm = ""
		})

		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)

		Eventually(pushCount).Should(Equal(1))
		cfg := eng.PushedConfigs()[0]
		Expect(cfg.IdleDurationSeconds).To(Equal(120))
		Expect(cfg.CooldownSeconds).To(Equal(60))
		Expect(cfg.Algorithm).To(Equal(bridge.AlgorithmXpress8K))
	})

	It("stops automation without pushing when disabled", func() {
		enable(nil)

		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)
		Eventually(eng.AutomationStarts).Should(Equal(1))

		_, err := store.Update(func(s *settings.Settings) {
			s.AutoCompressEnabled = false
		})
		Expect(err).ToNot(HaveOccurred())

		Eventually(eng.AutomationStops).Should(Equal(1))
		Expect(pushCount()).To(Equal(1))
	})

	It("ignores UI preference changes", func() {
		enable(nil)

		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)
		Eventually(pushCount).Should(Equal(1))

		_, err := store.Update(func(s *settings.Settings) {
			s.Theme = "light"
			s.NotificationsEnabled = false
		})
		Expect(err).ToNot(HaveOccurred())

		Consistently(pushCount, "200ms").Should(Equal(1))
		Expect(eng.AutomationStarts()).To(Equal(1))
	})

	It("re-syncs when an automation field changes", func() {
		enable(nil)

		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)
		Eventually(pushCount).Should(Equal(1))

		_, err := store.Update(func(s *settings.Settings) {
			s.CPUThresholdPercent = 50
		})
		Expect(err).ToNot(HaveOccurred())

		Eventually(pushCount).Should(Equal(2))
		Expect(eng.PushedConfigs()[1].CPUThresholdPercent).To(Equal(50))
	})

	It("retries a failed push on the next emission", func() {
		var remainingFailures atomic.Int32
		remainingFailures.Store(1)
		eng.PushAutomationConfigFn = func(ctx context.Context, cfg bridge.AutomationConfig) error {
			if remainingFailures.Add(-1) >= 0 {
				return errors.New("bridge detached")
			}
			return nil
		}

		enable(nil)

		sync := configsync.NewSynchronizer(eng, store)
		go sync.Run(ctx)

		// the failed attempt must not latch the synced state
		Eventually(pushCount).Should(Equal(1))
		Consistently(eng.AutomationStarts, "100ms").Should(BeZero())

		// an emission with unchanged automation fields retries
		_, err := store.Update(func(s *settings.Settings) {
			s.Theme = "light"
		})
		Expect(err).ToNot(HaveOccurred())

		Eventually(pushCount).Should(Equal(2))
		Eventually(eng.AutomationStarts).Should(Equal(1))
	})
})

var _ = Describe("BuildConfig", func() {
	It("never produces nil list fields", func() {
		doc := settings.NewDefault()
		doc.CustomFolders = nil
		doc.ExcludedPaths = nil

		cfg := configsync.BuildConfig(doc)
		Expect(cfg.WatchPaths).ToNot(BeNil())
		Expect(cfg.WatchPaths).To(BeEmpty())
		Expect(cfg.ExcludedPaths).ToNot(BeNil())
	})

	It("copies the list fields", func() {
		doc := settings.NewDefault()
		doc.CustomFolders = []string{"/library"}

		cfg := configsync.BuildConfig(doc)
		cfg.WatchPaths[0] = "/changed"
		Expect(doc.CustomFolders[0]).To(Equal("/library"))
	})
})
