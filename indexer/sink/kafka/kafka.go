// Package kafka implements an event sink that publishes event records to a
// Kafka topic, one message per record keyed by option.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/types"
)

const (
	HeaderChainID = "chain_id"
	HeaderHeight  = "height"
	HeaderType    = "type"
)

var _ indexer.EventSink = (*EventSink)(nil)

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventSink publishes committed event records to Kafka. Records of the same
// option share a partition, so consumers see each option's history in
// order.
type EventSink struct {
	writer  messageWriter
	chainID string
}

// NewEventSink returns a sink writing to topic on brokers.
func NewEventSink(brokers []string, topic, chainID string) *EventSink {
	return &EventSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		chainID: chainID,
	}
}

func (es *EventSink) Type() indexer.EventSinkType { return indexer.KAFKA }

// IndexEvents writes one message per record of b. The batch is written in a
// single call, so a failure may leave part of it published; consumers
// deduplicate on the sequence number in the message value.
func (es *EventSink) IndexEvents(ctx context.Context, b indexer.Batch) error {
	if len(b.Records) == 0 {
		return nil
	}
	chainID := b.ChainID
	if chainID == "" {
		chainID = es.chainID
	}

	msgs := make([]kafka.Message, 0, len(b.Records))
	for _, rec := range b.Records {
		value, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   messageKey(rec),
			Value: value,
			Headers: []kafka.Header{
				{Key: HeaderChainID, Value: []byte(chainID)},
				{Key: HeaderHeight, Value: []byte(strconv.FormatInt(b.Height, 10))},
				{Key: HeaderType, Value: []byte(rec.Name())},
			},
		})
	}
	return es.writer.WriteMessages(ctx, msgs...)
}

// messageKey partitions option events by option id and everything else by
// event name.
func messageKey(rec types.EventRecord) []byte {
	if oe, ok := rec.Event.(types.OptionEvent); ok {
		return []byte("option/" + strconv.FormatUint(oe.OptionID(), 10))
	}
	return []byte(rec.Name())
}

// Stop flushes pending messages and closes the writer.
func (es *EventSink) Stop() error { return es.writer.Close() }
