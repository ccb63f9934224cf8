package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/client"
	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/server"
)

func TestClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Daemon Client Suite")
}

var _ = Describe("daemon client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Status", func() {
		It("decodes the daemon overview", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodGet))
				Expect(r.URL.Path).To(Equal("/api/v1/status"))

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(server.StatusReply{
					Status:            "running",
					Version:           "v1.2.3",
					AutomationRunning: true,
					QueuePending:      4,
				})
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			status, err := c.Status(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(status.Version).To(Equal("v1.2.3"))
			Expect(status.AutomationRunning).To(BeTrue())
			Expect(status.QueuePending).To(Equal(4))
		})
	})

	Describe("ActiveJob", func() {
		It("returns ErrNoActiveJob when the daemon is idle", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no active job", http.StatusNotFound)
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			_, err := c.ActiveJob(ctx)

			Expect(err).To(MatchError(client.ErrNoActiveJob))
		})

		It("decodes the occupying job", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/jobs/active"))
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(coordinator.Job{
					Kind:     coordinator.JobKindCompression,
					Path:     "/games/steam/Hades",
					Status:   coordinator.JobStatusRunning,
					Progress: &bridge.Progress{Percent: 42},
				})
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			job, err := c.ActiveJob(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(job.Kind).To(Equal(coordinator.JobKindCompression))
			Expect(job.Progress.Percent).To(BeNumerically("==", 42))
		})
	})

	Describe("StartCompression", func() {
		It("posts the job request and accepts a 202", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/v1/jobs/compression"))
				Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

				var req map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req["path"]).To(Equal("/games/steam/Celeste"))
				Expect(req["algorithm"]).To(Equal("lzx"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusAccepted)
				_ = json.NewEncoder(w).Encode(server.AcceptedReply{Status: "accepted"})
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			Expect(c.StartCompression(ctx, "/games/steam/Celeste", "Celeste", "lzx")).To(Succeed())
		})

		It("surfaces the daemon reason when the slot is taken", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "a compression job is already running", http.StatusConflict)
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			err := c.StartCompression(ctx, "/games/steam/Celeste", "", "")

			var se *client.StatusError
			Expect(err).To(BeAssignableToTypeOf(se))
			se = err.(*client.StatusError)
			Expect(se.Code).To(Equal(http.StatusConflict))
			Expect(se.Reason).To(ContainSubstring("already running"))
		})
	})

	Describe("CancelActive", func() {
		It("accepts a cancel on an idle daemon", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodDelete))
				Expect(r.URL.Path).To(Equal("/api/v1/jobs/active"))
				w.WriteHeader(http.StatusAccepted)
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			Expect(c.CancelActive(ctx)).To(Succeed())
		})
	})

	Describe("Queue", func() {
		It("decodes entries and derived fields", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/queue"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"entries":[{"path":"/games/steam/Hades","name":"Hades","status":"compressing"}],"active":{"path":"/games/steam/Hades","name":"Hades","status":"compressing"},"pending":0}`))
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)
			queue, err := c.Queue(ctx)

			Expect(err).ToNot(HaveOccurred())
			Expect(queue.Entries).To(HaveLen(1))
			Expect(queue.Active).ToNot(BeNil())
			Expect(queue.Active.Name).To(Equal("Hades"))
		})
	})

	Context("context handling", func() {
		It("respects context cancellation", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(2 * time.Second)
				w.WriteHeader(http.StatusOK)
			}))
			defer ts.Close()

			c := client.New(ts.URL, 5*time.Second)

			cancelled, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := c.Status(cancelled)
			Expect(err).To(HaveOccurred())
		})
	})
})
