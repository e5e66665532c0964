// Package metrics registers the relay's Prometheus collectors:
//
//	#marketrelay_dispatch_total{action,outcome}
//	#marketrelay_callbacks_ingested_total{action}
//	#marketrelay_polls_total{action,outcome}
//	#go_* and process_* system metrics
//
// The handler returned by HTTPHandler is mounted on the API router.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeMiss    = "miss"
)

var (
	once          sync.Once
	dispatchTotal *prometheus.CounterVec
	ingestedTotal *prometheus.CounterVec
	pollsTotal    *prometheus.CounterVec
)

func Init() {
	once.Do(func() {
		dispatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketrelay_dispatch_total",
				Help: "Number of initiating actions forwarded to a gateway",
			},
			[]string{"action", "outcome"},
		)

		ingestedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketrelay_callbacks_ingested_total",
				Help: "Number of asynchronous callback records persisted",
			},
			[]string{"action"},
		)

		pollsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketrelay_polls_total",
				Help: "Number of poll retrievals served, by outcome",
			},
			[]string{"action", "outcome"},
		)

		_ = prometheus.Register(dispatchTotal)
		_ = prometheus.Register(ingestedTotal)
		_ = prometheus.Register(pollsTotal)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// HTTPHandler exposes the registered metrics in Prometheus text format.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// RecordDispatch increases the dispatch counter for an action.
func RecordDispatch(action string, outcome string) {
	if dispatchTotal != nil {
		dispatchTotal.WithLabelValues(action, outcome).Inc()
	}
}

// RecordIngest increases the ingested-callbacks counter for an action.
func RecordIngest(action string) {
	if ingestedTotal != nil {
		ingestedTotal.WithLabelValues(action).Inc()
	}
}

// RecordPoll increases the poll counter for an action and outcome.
func RecordPoll(action string, outcome string) {
	if pollsTotal != nil {
		pollsTotal.WithLabelValues(action, outcome).Inc()
	}
}
