package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	compactd = "compactd"

	// Job metrics
	jobsStartedTotal  = "jobs_started_total"
	jobsTerminalTotal = "jobs_terminal_total"

	// Automation metrics
	queuePendingCount   = "automation_queue_pending"
	automationRunning   = "automation_running"
	streamRestartsTotal = "engine_stream_restarts_total"
	configPushesTotal   = "automation_config_pushes_total"

	// Labels
	jobKindLabel   = "kind"
	jobStatusLabel = "status"
	streamLabel    = "stream"
	resultLabel    = "result"
)

var jobsStartedLabels = []string{
	jobKindLabel,
}

var jobsTerminalLabels = []string{
	jobStatusLabel,
}

/**
* Metrics definition
**/
var jobsStartedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: compactd,
		Name:      jobsStartedTotal,
		Help:      "number of jobs accepted into the active slot",
	},
	jobsStartedLabels,
)

var jobsTerminalTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: compactd,
		Name:      jobsTerminalTotal,
		Help:      "number of jobs that reached a terminal status",
	},
	jobsTerminalLabels,
)

var queuePendingMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: compactd,
		Name:      queuePendingCount,
		Help:      "entries of the automation queue waiting to be compressed",
	},
)

var automationRunningMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: compactd,
		Name:      automationRunning,
		Help:      "whether engine automation is currently running",
	},
)

var streamRestartsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: compactd,
		Name:      streamRestartsTotal,
		Help:      "number of engine stream resubscriptions after a failure",
	},
	[]string{streamLabel},
)

var configPushesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: compactd,
		Name:      configPushesTotal,
		Help:      "number of automation config pushes to the engine",
	},
	[]string{resultLabel},
)

func IncJobStarted(kind string) {
	labels := prometheus.Labels{
		jobKindLabel: kind,
	}
	jobsStartedTotalMetric.With(labels).Inc()
}

func IncJobTerminal(status string) {
	labels := prometheus.Labels{
		jobStatusLabel: status,
	}
	jobsTerminalTotalMetric.With(labels).Inc()
}

func SetQueuePending(count int) {
	queuePendingMetric.Set(float64(count))
}

func SetAutomationRunning(on bool) {
	if on {
		automationRunningMetric.Set(1)
		return
	}
	automationRunningMetric.Set(0)
}

func IncStreamRestart(stream string) {
	streamRestartsTotalMetric.With(prometheus.Labels{streamLabel: stream}).Inc()
}

func IncConfigPush(result string) {
	configPushesTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsStartedTotalMetric)
	prometheus.MustRegister(jobsTerminalTotalMetric)
	prometheus.MustRegister(queuePendingMetric)
	prometheus.MustRegister(automationRunningMetric)
	prometheus.MustRegister(streamRestartsTotalMetric)
	prometheus.MustRegister(configPushesTotalMetric)
}
