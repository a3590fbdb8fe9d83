package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vkmod_events_received",
	Help: "Number of community events received, by type",
}, []string{"type"})

var eventsMalformed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vkmod_events_malformed",
	Help: "Number of events skipped because the payload could not be decoded",
}, []string{"type"})

var eventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vkmod_events_duplicate",
	Help: "Number of redelivered messages skipped",
})
