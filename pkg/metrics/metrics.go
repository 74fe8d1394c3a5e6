package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resumeAnalyzer = "resume_analyzer"

	// Orchestrator metrics
	submissionsTotal  = "analysis_submissions_total"
	pollAttemptsTotal = "analysis_poll_attempts_total"
	jobFailuresTotal  = "analysis_job_failures_total"

	// Labels
	submissionOutcomeLabel = "outcome"
	failureKindLabel       = "kind"
)

/**
* Metrics definition
**/
var submissionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: resumeAnalyzer,
		Name:      submissionsTotal,
		Help:      "number of analysis submissions by outcome",
	},
	[]string{submissionOutcomeLabel},
)

var pollAttemptsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: resumeAnalyzer,
		Name:      pollAttemptsTotal,
		Help:      "number of status poll requests issued",
	},
)

var jobFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: resumeAnalyzer,
		Name:      jobFailuresTotal,
		Help:      "number of analysis jobs ending in failure, by error kind",
	},
	[]string{failureKindLabel},
)

func IncreaseSubmissionsTotalMetric(outcome string) {
	submissionsTotalMetric.With(prometheus.Labels{submissionOutcomeLabel: outcome}).Inc()
}

func IncreasePollAttemptsTotalMetric() {
	pollAttemptsTotalMetric.Inc()
}

func IncreaseJobFailuresTotalMetric(kind string) {
	jobFailuresTotalMetric.With(prometheus.Labels{failureKindLabel: kind}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(submissionsTotalMetric)
	prometheus.MustRegister(pollAttemptsTotalMetric)
	prometheus.MustRegister(jobFailuresTotalMetric)
}
