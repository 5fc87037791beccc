// Package events publishes domain events about invoices to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/logging"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const TypeInvoiceIssued = "invoice.issued"

// InvoiceIssued is emitted once an invoice has been committed as ISSUED.
type InvoiceIssued struct {
	Type        string          `json:"type"`
	InvoiceID   int64           `json:"invoice_id"`
	Folio       string          `json:"folio"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	IssuedAt    time.Time       `json:"issued_at"`
}

// NewInvoiceIssued builds the event for an issued invoice.
func NewInvoiceIssued(inv *models.Invoice) InvoiceIssued {
	ev := InvoiceIssued{
		Type:        TypeInvoiceIssued,
		InvoiceID:   inv.ID,
		TotalAmount: inv.TotalAmount,
	}
	if inv.FiscalFolio != nil {
		ev.Folio = *inv.FiscalFolio
	}
	if inv.UpdatedAt != nil {
		ev.IssuedAt = *inv.UpdatedAt
	}
	return ev
}

// Writer is the subset of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is what services use to emit events.
type Publisher interface {
	PublishInvoiceIssued(ctx context.Context, ev InvoiceIssued) error
	Close() error
}

// KafkaProducer writes JSON events keyed by invoice id, so that all events
// of one invoice land on the same partition.
type KafkaProducer struct {
	writer Writer
	logger logging.Logger
}

func NewKafkaProducer(brokers []string, topic string, logger logging.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaProducerWithWriter(w, logger)
}

func NewKafkaProducerWithWriter(w Writer, logger logging.Logger) *KafkaProducer {
	return &KafkaProducer{writer: w, logger: logger.With("module", "events")}
}

func (p *KafkaProducer) PublishInvoiceIssued(ctx context.Context, ev InvoiceIssued) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{Key: []byte(strconv.FormatInt(ev.InvoiceID, 10)), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	p.logger.Debug(ctx, "event published", "type", ev.Type, "invoice_id", ev.InvoiceID)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishInvoiceIssued(context.Context, InvoiceIssued) error { return nil }
func (NopPublisher) Close() error                                              { return nil }
