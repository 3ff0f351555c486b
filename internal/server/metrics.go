package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts backend activity. Each server registers its own set.
type Metrics struct {
	DraftsSaved        *prometheus.CounterVec
	DraftsLoaded       *prometheus.CounterVec
	Submissions        prometheus.Counter
	SubmissionFailures *prometheus.CounterVec
}

// NewMetrics registers the counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DraftsSaved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "applywiz_drafts_saved_total",
				Help: "Total number of drafts saved",
			},
			[]string{"auto_save"},
		),
		DraftsLoaded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "applywiz_drafts_loaded_total",
				Help: "Total number of draft lookups by result",
			},
			[]string{"result"},
		),
		Submissions: f.NewCounter(
			prometheus.CounterOpts{
				Name: "applywiz_applications_submitted_total",
				Help: "Total number of applications submitted",
			},
		),
		SubmissionFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "applywiz_submission_failures_total",
				Help: "Total number of rejected or failed submissions",
			},
			[]string{"reason"},
		),
	}
}
