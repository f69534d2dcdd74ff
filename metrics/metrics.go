package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StepsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rampflow",
		Name:      "steps_executed_total",
		Help:      "Steps executed, by step kind and outcome.",
	}, []string{"kind", "outcome"})

	WatcherTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rampflow",
		Name:      "watcher_timeouts_total",
		Help:      "Confirmation waits that exceeded the bound.",
	})

	WatcherRescues = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rampflow",
		Name:      "watcher_rescues_total",
		Help:      "Timed-out waits where the direct lookup found the transaction mined.",
	})

	FlowsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rampflow",
		Name:      "flows_completed_total",
		Help:      "Flows that reached the terminal completed state.",
	})

	FlowsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rampflow",
		Name:      "flows_aborted_total",
		Help:      "Flows aborted by explicit user action.",
	})
)
