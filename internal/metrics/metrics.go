package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow counters for the order approval pipeline.
var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mess_orders_placed_total",
		Help: "Orders accepted into the pending ledger",
	})

	OrdersApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mess_orders_approved_total",
		Help: "Orders approved by an admin",
	})

	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mess_orders_rejected_total",
		Help: "Orders rejected by an admin",
	})

	CapacityConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mess_capacity_conflicts_total",
		Help: "Approvals refused because remaining capacity was insufficient",
	})

	TokenLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mess_token_lookups_total",
		Help: "Pickup token verification attempts by result",
	}, []string{"result"})

	OrdersFulfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mess_orders_fulfilled_total",
		Help: "Approved orders collected at the counter",
	})
)
