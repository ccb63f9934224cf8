package fake_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/bridge/fake"
)

func TestFake(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fake Engine Suite")
}

var _ = Describe("Simulator", func() {
	var (
		sim    *fake.Simulator
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		sim = fake.NewSimulator(fake.WithSimTicks(5*time.Millisecond, 10*time.Millisecond))
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	It("lists the seeded library in a stable order", func() {
		first := sim.ListGames()
		second := sim.ListGames()
		Expect(first).ToNot(BeEmpty())
		Expect(second).To(Equal(first))
	})

	It("runs a manual compression to completion", func() {
		stream, err := sim.SubscribeCompressionProgress(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(sim.StartCompression(ctx, "/library/steam/Hades", "Hades", bridge.AlgorithmLZX)).To(Succeed())

		Eventually(stream.Events(), "2s").Should(BeClosed())
		Expect(stream.Err()).ToNot(HaveOccurred())

		g, err := sim.Hydrate(ctx, "/library/steam/Hades", "", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(g).ToNot(BeNil())
		Expect(g.Compressed).To(BeTrue())
		Expect(g.Algorithm).To(Equal(bridge.AlgorithmLZX))
		Expect(g.SizeOnDisk).To(BeNumerically("<", g.OriginalSize))
	})

	It("rejects a second compression while one is running", func() {
		_, err := sim.SubscribeCompressionProgress(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(sim.StartCompression(ctx, "/library/steam/Hades", "Hades", bridge.AlgorithmLZX)).To(Succeed())

		err = sim.StartCompression(ctx, "/library/steam/Celeste", "Celeste", bridge.AlgorithmLZX)
		Expect(err).To(HaveOccurred())
	})

	It("frees the slot when cancelled", func() {
		stream, err := sim.SubscribeCompressionProgress(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(sim.StartCompression(ctx, "/library/steam/Baldurs Gate 3", "Baldur's Gate 3", bridge.AlgorithmLZX)).To(Succeed())
		Eventually(stream.Events()).Should(Receive())

		Expect(sim.CancelCompression(ctx)).To(Succeed())
		stream.Stop()

		Eventually(func() error {
			return sim.StartCompression(ctx, "/library/steam/Celeste", "Celeste", bridge.AlgorithmXpress8K)
		}).Should(Succeed())
	})

	It("rejects unknown paths", func() {
		Expect(sim.StartCompression(ctx, "/nowhere", "", bridge.AlgorithmLZX)).ToNot(Succeed())
		Expect(sim.Decompress(ctx, "/nowhere")).ToNot(Succeed())

		g, err := sim.Hydrate(ctx, "/nowhere", "", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(g).To(BeNil())
	})

	It("restores a compressed game on decompression", func() {
		Expect(sim.Decompress(ctx, "/library/steam/Factorio")).To(Succeed())

		g, err := sim.Hydrate(ctx, "/library/steam/Factorio", "", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Compressed).To(BeFalse())
		Expect(g.SizeOnDisk).To(Equal(g.OriginalSize))
	})

	It("settles the automated queue over time", func() {
		go sim.Run(ctx)

		queue, err := sim.SubscribeQueue(ctx)
		Expect(err).ToNot(HaveOccurred())

		Expect(sim.PushAutomationConfig(ctx, bridge.AutomationConfig{
			WatchPaths: []string{"/library/steam"},
			Algorithm:  bridge.AlgorithmXpress8K,
		})).To(Succeed())
		Expect(sim.StartAutomation(ctx)).To(Succeed())

		// Hades, Celeste and Baldur's Gate 3 start out uncompressed
		var snapshot []bridge.QueueEntry
		Eventually(func() []bridge.QueueEntry {
			for {
				select {
				case snap, ok := <-queue.Events():
					if !ok {
						return snapshot
					}
					snapshot = snap
				default:
					return snapshot
				}
			}
		}, "5s").Should(SatisfyAll(
			HaveLen(3),
			HaveEach(HaveField("Status", bridge.QueueStatusCompleted)),
		))

		g, err := sim.Hydrate(ctx, "/library/steam/Hades", "", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Compressed).To(BeTrue())
	})

	It("excludes configured paths from the queue", func() {
		queue, err := sim.SubscribeQueue(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(sim.PushAutomationConfig(ctx, bridge.AutomationConfig{
			WatchPaths:    []string{"/library"},
			ExcludedPaths: []string{"/library/epic"},
			Algorithm:     bridge.AlgorithmXpress8K,
		})).To(Succeed())
		Expect(sim.StartAutomation(ctx)).To(Succeed())

		var snapshot []bridge.QueueEntry
		Eventually(queue.Events()).Should(Receive(&snapshot)) // initial empty snapshot
		Eventually(queue.Events()).Should(Receive(&snapshot))
		Expect(snapshot).To(HaveLen(4))
		for _, entry := range snapshot {
			Expect(entry.Path).ToNot(HavePrefix("/library/epic"))
		}
	})

	It("reports the automation flag to late subscribers", func() {
		Expect(sim.StartAutomation(ctx)).To(Succeed())

		running, err := sim.SubscribeAutomationRunning(ctx)
		Expect(err).ToNot(HaveOccurred())
		Eventually(running.Events()).Should(Receive(BeTrue()))

		Expect(sim.StopAutomation(ctx)).To(Succeed())
		Eventually(running.Events()).Should(Receive(BeFalse()))
	})
})
