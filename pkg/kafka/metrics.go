package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consumerReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_consumer_messages_received_total",
		Help: "Messages fetched from the broker, before handling.",
	}, []string{"topic", "consumer_group"})

	consumerProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_consumer_messages_processed_total",
		Help: "Messages handled successfully.",
	}, []string{"topic", "consumer_group"})

	consumerFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_consumer_messages_failed_total",
		Help: "Messages that could not be decoded or exhausted their retries.",
	}, []string{"topic", "consumer_group"})

	consumerDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_consumer_dlq_published_total",
		Help: "Messages copied to the dead-letter topic.",
	}, []string{"topic", "consumer_group"})

	consumerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recam_kafka_consumer_processing_duration_seconds",
		Help:    "Time spent handling one message, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic", "consumer_group"})

	duplicatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_duplicate_events_skipped_total",
		Help: "Events skipped because their id was already processed.",
	}, []string{"event_type"})

	producerPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_producer_messages_published_total",
		Help: "Messages published.",
	}, []string{"topic"})

	producerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recam_kafka_producer_publish_errors_total",
		Help: "Publish attempts that failed.",
	}, []string{"topic"})

	producerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recam_kafka_producer_publish_duration_seconds",
		Help:    "Time spent in one publish call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
)
