package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/CTAG07/chatterbox/pkg/markov"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "chatterbox"

// Reply results, used as the "result" label.
const (
	replyResultOK       = "ok"
	replyResultTooShort = "too_short"
	replyResultNoReply  = "no_reply"
	replyResultError    = "error"
)

var (
	registry = prometheus.NewRegistry()

	sentencesTrained = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sentences_trained_total",
			Help:      "Count of sentences handed to the trainer.",
		},
	)
	chatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chat_messages_total",
			Help:      "Count of chat messages received, by whether they were a command.",
		},
		[]string{"command"},
	)
	replies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replies_total",
			Help:      "Count of reply attempts by result.",
		},
		[]string{"result"},
	)
	replyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "reply_duration_seconds",
			Help:      "Time spent producing a reply.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		registry.MustRegister(sentencesTrained)
		registry.MustRegister(chatMessages)
		registry.MustRegister(replies)
		registry.MustRegister(replyDuration)
	})
}

// MetricsHandler serves the registered metrics in the Prometheus text format.
func MetricsHandler() http.Handler {
	Register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// recordReply counts the outcome of a reply attempt that started at start.
func recordReply(start time.Time, err error) {
	replyDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		replies.WithLabelValues(replyResultOK).Inc()
	case errors.Is(err, markov.ErrInputTooShort):
		replies.WithLabelValues(replyResultTooShort).Inc()
	case errors.Is(err, markov.ErrNoReply):
		replies.WithLabelValues(replyResultNoReply).Inc()
	default:
		replies.WithLabelValues(replyResultError).Inc()
	}
}
