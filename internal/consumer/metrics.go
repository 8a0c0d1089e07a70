package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Messages successfully handled and committed.",
	}, []string{"topic", "event_type"})
	handlerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "consumer",
		Name:      "handler_errors_total",
		Help:      "Messages whose handler returned an error.",
	}, []string{"topic", "event_type"})
	decodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Messages that could not be decoded.",
	}, []string{"topic"})
	consumerLag = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "siteboard",
		Subsystem: "consumer",
		Name:      "lag_seconds",
		Help:      "Age of the most recently fetched message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesProcessed, handlerErrors, decodeErrors, consumerLag)
}

func recordProcessed(msg Message) {
	messagesProcessed.WithLabelValues(msg.Topic, msg.EventType).Inc()
	RecordLag(msg.Topic, msg.Timestamp)
}

func recordHandlerError(msg Message) {
	handlerErrors.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrors.WithLabelValues(topic).Inc()
}

// RecordLag updates the lag gauge from a message timestamp.
func RecordLag(topic string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	consumerLag.WithLabelValues(topic).Set(time.Since(ts).Seconds())
}
