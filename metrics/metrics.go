package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TournamentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "esports_tournament_transitions_total", Help: "Tournament status transitions by target status"},
		[]string{"status"},
	)
	RoundsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "esports_rounds_generated_total", Help: "Bracket rounds generated, including round 1"},
	)
	MatchResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "esports_match_results_total", Help: "Resolved matches by outcome"},
		[]string{"outcome"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esports_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(TournamentTransitions, RoundsGenerated, MatchResults, HTTPRequestDuration)
}
