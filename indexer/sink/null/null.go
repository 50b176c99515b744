package null

import (
	"context"

	"github.com/constellation-lab/constellation-zkevm/indexer"
)

var _ indexer.EventSink = (*EventSink)(nil)

// EventSink implements a no-op indexer.
type EventSink struct{}

func NewEventSink() indexer.EventSink {
	return &EventSink{}
}

func (nes *EventSink) Type() indexer.EventSinkType {
	return indexer.NULL
}

func (nes *EventSink) IndexEvents(context.Context, indexer.Batch) error {
	return nil
}

func (nes *EventSink) Stop() error {
	return nil
}
