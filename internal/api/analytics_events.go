package api

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"bistrotrack/server/internal/models"
)

// SummaryEventPublisher announces recalculated daily summaries on Kafka so
// downstream consumers (reporting, alerting) pick them up without polling.
type SummaryEventPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewSummaryEventPublisher creates a publisher over the summary topic.
// Returns nil when no brokers are configured so callers can nil-check.
func NewSummaryEventPublisher(brokers, topic, username, password, caCert string) *SummaryEventPublisher {
	brokerList := ParseKafkaBrokers(brokers)
	if len(brokerList) == 0 || topic == "" {
		return nil
	}

	dialer := CreateKafkaDialer(username, password, caCert)
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokerList,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Dialer:       dialer,
		BatchTimeout: 100 * time.Millisecond,
	})

	return &SummaryEventPublisher{writer: writer, topic: topic}
}

// PublishSummaryUpdated emits a summary-updated event keyed by date
func (p *SummaryEventPublisher) PublishSummaryUpdated(summary *models.DailySummary) {
	if p == nil || p.writer == nil || summary == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event":   "summary_updated",
		"date":    summary.Date.Format("2006-01-02"),
		"summary": summary,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(summary.Date.Format("2006-01-02")),
		Value: payload,
	})
	if err != nil {
		log.Printf("⚠️ Failed to publish summary event for %s: %v", summary.Date.Format("2006-01-02"), err)
	}
}

// Close flushes and closes the underlying writer
func (p *SummaryEventPublisher) Close() {
	if p == nil || p.writer == nil {
		return
	}
	if err := p.writer.Close(); err != nil {
		log.Printf("⚠️ Failed to close summary event writer: %v", err)
	}
}
