package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service counters. Registrations are labelled by outcome so saturation of
// the generated keyspace (exhausted) is visible before it becomes an outage.
var (
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkforge",
		Name:      "registrations_total",
		Help:      "Slug registration attempts by outcome.",
	}, []string{"outcome"})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkforge",
		Name:      "resolutions_total",
		Help:      "Slug resolutions by result.",
	}, []string{"result"})

	QuotaRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "linkforge",
		Name:      "quota_rejections_total",
		Help:      "Registrations rejected by the per-caller quota.",
	})
)

// Registration outcomes / resolution results used as label values.
const (
	OutcomeCreated   = "created"
	OutcomeInvalid   = "invalid"
	OutcomeConflict  = "conflict"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"

	ResultHit  = "hit"
	ResultMiss = "miss"
)
