package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	. "ringbook/internal/common"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const sessionHeader = "session"

// wireNotification is the JSON body of a Kafka message.
type wireNotification struct {
	ID         int64   `json:"id"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Executed   int64   `json:"executed"`
	Unexecuted int64   `json:"unexecuted"`
	AvgPrice   float64 `json:"avg_price"`
	Outcome    string  `json:"outcome"`
	At         int64   `json:"at"` // unix nanoseconds
}

func encodeNotification(n Notification) ([]byte, error) {
	return json.Marshal(wireNotification{
		ID:         n.ID,
		Side:       n.Side.String(),
		Type:       n.Type.String(),
		Executed:   n.Executed,
		Unexecuted: n.Unexecuted,
		AvgPrice:   n.AvgPrice,
		Outcome:    n.Outcome().String(),
		At:         n.At.UnixNano(),
	})
}

// KafkaSink publishes notifications to a topic, keyed by order id so every
// report for an id lands on the same partition.
type KafkaSink struct {
	writer  kafkaWriter
	session uuid.UUID
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaSink(brokers []string, topic string, session uuid.UUID) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		session: session,
	}
}

func (s *KafkaSink) Publish(ctx context.Context, batch []Notification) error {
	msgs, err := s.messages(batch)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, msgs...)
}

func (s *KafkaSink) messages(batch []Notification) ([]kafka.Message, error) {
	session := []byte(s.session.String())
	msgs := make([]kafka.Message, 0, len(batch))
	for _, n := range batch {
		value, err := encodeNotification(n)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(strconv.FormatInt(n.ID, 10)),
			Value:   value,
			Time:    n.At,
			Headers: []kafka.Header{{Key: sessionHeader, Value: session}},
		})
	}
	return msgs, nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
