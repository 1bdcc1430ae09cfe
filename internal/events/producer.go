// Package events publishes background work to Kafka. Consumers
// (invoice renderer, thumbnail worker) run out of process.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TaskInvoiceRender  = "invoice.render"
	TaskImageThumbnail = "image.thumbnail"
)

// Task is the envelope written to the task topic.
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	OrderID   string            `json:"order_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// TaskProducer enqueues asynchronous tasks. A nil producer (no brokers
// configured) drops tasks with a log line so local development works
// without Kafka.
type TaskProducer struct {
	writer *kafka.Writer
}

// NewTaskProducer returns nil when no brokers are configured.
func NewTaskProducer(brokers []string, topic string) *TaskProducer {
	if len(brokers) == 0 {
		return nil
	}

	return &TaskProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Enqueue publishes a task and returns its ID. The order ID keys the
// message so tasks for one order stay on one partition.
func (p *TaskProducer) Enqueue(ctx context.Context, taskType, orderID string, payload map[string]string) (string, error) {
	task := Task{
		ID:        uuid.New().String(),
		Type:      taskType,
		OrderID:   orderID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if p == nil {
		log.Printf("[Events] no brokers configured, dropping task %s (%s)", task.ID, taskType)
		return task.ID, nil
	}

	value, err := json.Marshal(task)
	if err != nil {
		return "", err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID),
		Value: value,
	})
	if err != nil {
		return "", err
	}

	return task.ID, nil
}

// Close flushes and closes the underlying writer.
func (p *TaskProducer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
