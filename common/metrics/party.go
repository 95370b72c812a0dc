package metrics

import "github.com/prometheus/client_golang/prometheus"

// PartyMetrics tracks voting and gift-exchange activity.
type PartyMetrics struct {
	VotesTotal          *prometheus.CounterVec
	RegistrationsTotal  prometheus.Counter
	ExchangeTransitions *prometheus.CounterVec
	ExchangesByStatus   *prometheus.GaugeVec
}

// NewPartyMetrics creates and registers domain metrics on the given registry.
func NewPartyMetrics(reg prometheus.Registerer) *PartyMetrics {
	m := &PartyMetrics{
		VotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "votes",
			Name:      "cast_total",
			Help:      "Votes cast, by agenda.",
		}, []string{"agenda_id"}),
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "registrations_total",
			Help:      "Participants registered.",
		}),
		ExchangeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gift_exchange",
			Name:      "transitions_total",
			Help:      "Gift-exchange state transitions, by kind.",
		}, []string{"kind"}),
		ExchangesByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gift_exchange",
			Name:      "assignments",
			Help:      "Current gift-exchange assignments, by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(m.VotesTotal, m.RegistrationsTotal, m.ExchangeTransitions, m.ExchangesByStatus)
	return m
}
