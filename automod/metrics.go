package automod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "vkmod_message_duration_sec",
	Help: "Total duration of message processing, including deletion",
})

var messageDecisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vkmod_message_decisions",
	Help: "Number of messages evaluated, by decision and deciding rule",
}, []string{"action", "rule"})

var messageErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vkmod_message_errors",
	Help: "Number of errors during message evaluation, by kind",
}, []string{"kind"})

var deletionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vkmod_deletions",
	Help: "Number of attempted message deletions, by status",
}, []string{"status"})
