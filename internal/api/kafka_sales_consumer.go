package api

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/services"
)

// PosSaleEvent is the JSON payload the POS publishes for a completed order
type PosSaleEvent struct {
	OrderNumber string        `json:"order_number"`
	SaleDate    string        `json:"sale_date"` // YYYY-MM-DD, today when empty
	Customer    string        `json:"customer"`
	Cashier     string        `json:"cashier"`
	Lines       []PosSaleLine `json:"lines"`
}

// PosSaleLine is one product line inside a POS order event
type PosSaleLine struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// KafkaSalesConsumer reads POS sale events, persists the sale lines and
// recalculates the affected day's summary.
type KafkaSalesConsumer struct {
	topic     string
	groupID   string
	reader    *kafka.Reader
	ctx       context.Context
	cancel    context.CancelFunc
	sales     *services.SalesService
	analytics *services.DailyAnalyticsService
	publisher *SummaryEventPublisher
	processed int64
	lastLog   int64
}

// NewKafkaSalesConsumer wires a consumer group over the POS sales topic
func NewKafkaSalesConsumer(brokers, topic string, sales *services.SalesService, analytics *services.DailyAnalyticsService, publisher *SummaryEventPublisher, username, password, caCert string) *KafkaSalesConsumer {
	brokerList := ParseKafkaBrokers(brokers)
	ctx, cancel := context.WithCancel(context.Background())

	dialer := CreateKafkaDialer(username, password, caCert)

	const groupID = "analytics-sales-group-v1"
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokerList,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
	})

	return &KafkaSalesConsumer{
		topic:     topic,
		groupID:   groupID,
		reader:    reader,
		ctx:       ctx,
		cancel:    cancel,
		sales:     sales,
		analytics: analytics,
		publisher: publisher,
		lastLog:   time.Now().Unix(),
	}
}

// Start launches the consume loop in its own goroutine
func (kc *KafkaSalesConsumer) Start() {
	log.Printf("📡 Kafka sales consumer started: topic=%s, groupID=%s, startOffset=FirstOffset", kc.topic, kc.groupID)

	go func() {
		for {
			select {
			case <-kc.ctx.Done():
				log.Println("🛑 Kafka sales consumer stopped")
				return
			default:
				msg, err := kc.reader.ReadMessage(kc.ctx)
				if err != nil {
					if err == context.Canceled {
						return
					}
					log.Printf("⚠️ Kafka sales consumer read error: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}

				var event PosSaleEvent
				if err := json.Unmarshal(msg.Value, &event); err != nil {
					// Skip malformed payloads without spamming the log
					continue
				}
				kc.handleEvent(&event)

				processed := atomic.AddInt64(&kc.processed, 1)
				now := time.Now().Unix()
				if now-atomic.LoadInt64(&kc.lastLog) >= 5 {
					atomic.StoreInt64(&kc.lastLog, now)
					log.Printf("📊 Kafka sales consumer: %d orders processed", processed)
				}
			}
		}
	}()
}

func (kc *KafkaSalesConsumer) handleEvent(event *PosSaleEvent) {
	if event.OrderNumber == "" || len(event.Lines) == 0 {
		return
	}

	saleDate := time.Now().UTC()
	if event.SaleDate != "" {
		if parsed, err := time.Parse("2006-01-02", event.SaleDate); err == nil {
			saleDate = parsed
		}
	}

	sales := make([]models.Sale, 0, len(event.Lines))
	for _, line := range event.Lines {
		if line.ProductID == "" || !line.Quantity.IsPositive() {
			continue
		}
		sales = append(sales, models.Sale{
			SaleDate:       saleDate,
			OrderNumber:    event.OrderNumber,
			ProductID:      line.ProductID,
			QuantitySold:   line.Quantity,
			UnitSalePrice:  line.UnitPrice,
			TotalSalePrice: line.Total,
			Customer:       event.Customer,
			Cashier:        event.Cashier,
		})
	}
	if len(sales) == 0 {
		return
	}

	if err := kc.sales.CreateSalesBatch(sales); err != nil {
		log.Printf("⚠️ Failed to persist POS order %s: %v", event.OrderNumber, err)
		return
	}

	summary, err := kc.analytics.CalculateDailySummary(saleDate)
	if err != nil {
		log.Printf("⚠️ Failed to recalculate summary for %s: %v", saleDate.Format("2006-01-02"), err)
		return
	}

	update, err := json.Marshal(map[string]interface{}{
		"type":    "summary_updated",
		"date":    summary.Date.Format("2006-01-02"),
		"summary": summary,
	})
	if err == nil {
		DashboardHub.BroadcastMessage(update)
	}

	if kc.publisher != nil {
		kc.publisher.PublishSummaryUpdated(summary)
	}
}

// Stop cancels the consume loop and closes the reader
func (kc *KafkaSalesConsumer) Stop() {
	kc.cancel()
	if kc.reader != nil {
		kc.reader.Close()
	}
	log.Println("🛑 Kafka sales consumer stopped")
}
