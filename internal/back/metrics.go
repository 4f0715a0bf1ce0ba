package back

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{ // nolint:gochecknoglobals
		Namespace: "puma",
		Name:      "matches_created_total",
		Help:      "Number of matches created, by kind and pairing method.",
	}, []string{"kind", "method"})

	matchesRated = promauto.NewCounter(prometheus.CounterOpts{ // nolint:gochecknoglobals
		Namespace: "puma",
		Name:      "matches_rated_total",
		Help:      "Number of matches whose outcome was applied to ratings.",
	})

	ratingWrites = promauto.NewCounterVec(prometheus.CounterOpts{ // nolint:gochecknoglobals
		Namespace: "puma",
		Name:      "rating_writes_total",
		Help:      "Number of rating history entries written, by origin.",
	}, []string{"origin"})
)
