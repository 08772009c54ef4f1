package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks game activity. All counters are best-effort observability;
// nothing in the game path reads them back. Each Metrics owns its registry
// so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RoomsCreated     prometheus.Counter
	PlayersJoined    prometheus.Counter
	EntriesSubmitted prometheus.Counter
	RoundsAdvanced   prometheus.Counter
	RoomsFinished    prometheus.Counter
	TickRacesLost    prometheus.Counter
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Total number of rooms created",
		}),
		PlayersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_joined_total",
			Help:      "Total number of players seated",
		}),
		EntriesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_submitted_total",
			Help:      "Total number of relay entries recorded",
		}),
		RoundsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_advanced_total",
			Help:      "Total number of committed round transitions",
		}),
		RoomsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_finished_total",
			Help:      "Total number of rooms that reached the final round",
		}),
		TickRacesLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_races_lost_total",
			Help:      "Tick attempts that lost the version precondition race",
		}),
	}
	m.registry.MustRegister(
		m.RoomsCreated,
		m.PlayersJoined,
		m.EntriesSubmitted,
		m.RoundsAdvanced,
		m.RoomsFinished,
		m.TickRacesLost,
	)
	return m
}

// Handler serves the prometheus scrape endpoint, mounted on its own
// listener so game traffic and scrapes never share a port.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}
