package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// NewWriter builds a writer for a comma separated broker list.
func NewWriter(brokers string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(strings.Split(brokers, ",")...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

type payrollEventPublisher struct {
	writer MessageWriter
	topic  string
}

func NewPayrollEventPublisher(writer MessageWriter, topic string) payroll.EventPublisher {
	return &payrollEventPublisher{writer: writer, topic: topic}
}

func (p *payrollEventPublisher) PublishRunFinalized(ctx context.Context, event payroll.RunFinalizedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", payroll.EventTypeRunFinalized, err)
	}

	// Keyed by employee so all runs of one employee land on one partition.
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: p.topic,
		Key:   []byte(event.EmployeeID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(payroll.EventTypeRunFinalized)},
			{Key: "aggregate_id", Value: []byte(event.PayrollRunID)},
		},
	})
}
