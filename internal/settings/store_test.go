package settings_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/compactd/compactd/internal/settings"
)

func TestSettings(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Settings Suite")
}

var _ = Describe("Store", func() {
	var (
		dir  string
		path string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "settings.yaml")
	})

	It("seeds defaults when the file does not exist", func() {
		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		current := store.Current()
		Expect(current.CPUThresholdPercent).To(Equal(settings.DefaultCPUThresholdPercent))
		Expect(current.AutoCompressEnabled).To(BeFalse())
		Expect(path).To(BeAnExistingFile())
	})

	It("parses an existing file", func() {
		doc := []byte("autoCompressEnabled: true\ncpuThresholdPercent: 50\nidleDurationMinutes: 10\ncooldownMinutes: 20\nalgorithm: lzx\n")
		Expect(os.WriteFile(path, doc, 0o644)).To(Succeed())

		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		current := store.Current()
		Expect(current.AutoCompressEnabled).To(BeTrue())
		Expect(current.CPUThresholdPercent).To(Equal(50))
		Expect(current.Algorithm).To(Equal("lzx"))
	})

	It("rejects invalid documents", func() {
		doc := []byte("cpuThresholdPercent: 150\n")
		Expect(os.WriteFile(path, doc, 0o644)).To(Succeed())

		store := settings.NewStore(path)
		Expect(store.Load()).NotTo(Succeed())
		Expect(store.Loaded()).To(BeFalse())
	})

	It("publishes nothing before the first load", func() {
		store := settings.NewStore(path)
		sub := store.Subscribe()
		defer sub.Cancel()

		Consistently(sub.Updates(), "200ms").ShouldNot(Receive())

		Expect(store.Load()).To(Succeed())
		Eventually(sub.Updates()).Should(Receive())
	})

	It("persists and publishes updates", func() {
		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		sub := store.Subscribe()
		defer sub.Cancel()
		Eventually(sub.Updates()).Should(Receive())

		updated, err := store.Update(func(s *settings.Settings) {
			s.AutoCompressEnabled = true
			s.CustomFolders = append(s.CustomFolders, "/library/steam")
		})
		Expect(err).To(BeNil())
		Expect(updated.AutoCompressEnabled).To(BeTrue())

		var got settings.Settings
		Eventually(sub.Updates()).Should(Receive(&got))
		Expect(got.CustomFolders).To(ConsistOf("/library/steam"))

		// survives a fresh store
		reopened := settings.NewStore(path)
		Expect(reopened.Load()).To(Succeed())
		Expect(reopened.Current().AutoCompressEnabled).To(BeTrue())
	})

	It("rejects updates that fail validation", func() {
		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		_, err := store.Update(func(s *settings.Settings) {
			s.CPUThresholdPercent = 200
		})
		Expect(err).To(HaveOccurred())
		Expect(store.Current().CPUThresholdPercent).To(Equal(settings.DefaultCPUThresholdPercent))
	})

	It("keeps the last good snapshot when a reload fails", func() {
		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		Expect(os.WriteFile(path, []byte("cpuThresholdPercent: [broken"), 0o644)).To(Succeed())
		Expect(store.Reload()).NotTo(Succeed())
		Expect(store.Current().CPUThresholdPercent).To(Equal(settings.DefaultCPUThresholdPercent))
	})

	It("skips publishing when the file content did not change", func() {
		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		sub := store.Subscribe()
		defer sub.Cancel()
		Eventually(sub.Updates()).Should(Receive())

		Expect(store.Reload()).To(Succeed())
		Consistently(sub.Updates(), "200ms").ShouldNot(Receive())
	})

	It("picks up external file rewrites through Watch", func() {
		store := settings.NewStore(path)
		Expect(store.Load()).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		watchDone := make(chan error, 1)
		go func() {
			watchDone <- store.Watch(ctx)
		}()

		sub := store.Subscribe()
		defer sub.Cancel()
		Eventually(sub.Updates()).Should(Receive())

		doc := []byte("autoCompressEnabled: true\ncpuThresholdPercent: 40\n")
		Expect(os.WriteFile(path, doc, 0o644)).To(Succeed())

		var got settings.Settings
		Eventually(sub.Updates()).WithTimeout(3 * time.Second).Should(Receive(&got))
		Expect(got.AutoCompressEnabled).To(BeTrue())

		cancel()
		Eventually(watchDone).Should(Receive(BeNil()))
	})
})
