package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	membershipOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_membership_operations_total",
			Help: "Join and leave attempts by outcome",
		},
		[]string{"op", "result"},
	)
	progressUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_progress_updates_total",
			Help: "Progress updates by origin (manual or sync)",
		},
		[]string{"origin"},
	)
	challengeCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitness_challenge_completions_total",
			Help: "Challenges that reached 100 percent",
		},
	)
	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_sync_runs_total",
			Help: "Sync invocations by outcome",
		},
		[]string{"result"},
	)
	sourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_sync_source_failures_total",
			Help: "Measurement source reads that failed during sync",
		},
		[]string{"source"},
	)
)

// InitMetrics registers the domain metrics. Call once from main.
func InitMetrics() {
	prometheus.MustRegister(membershipOps)
	prometheus.MustRegister(progressUpdates)
	prometheus.MustRegister(challengeCompletions)
	prometheus.MustRegister(syncRuns)
	prometheus.MustRegister(sourceFailures)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
