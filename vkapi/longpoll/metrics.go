package longpoll

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pollRequestCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vkmod_longpoll_requests",
	Help: "Number of long poll requests sent",
})

var pollEventCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vkmod_longpoll_events",
	Help: "Number of events received over long poll",
})

var pollFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vkmod_longpoll_failures",
	Help: "Number of long poll failures, by kind",
}, []string{"kind"})
