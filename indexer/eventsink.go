package indexer

import (
	"context"

	"github.com/constellation-lab/constellation-zkevm/types"
)

type EventSinkType string

const (
	NULL  EventSinkType = "null"
	PSQL  EventSinkType = "psql"
	KAFKA EventSinkType = "kafka"
)

// Batch is the set of event records committed with one block.
type Batch struct {
	ChainID string
	Height  int64
	Records []types.EventRecord
}

// EventSink mirrors committed event records into an external store.
//
// The Service hands every committed batch to each sink in height order. A sink
// must tolerate receiving a batch twice, which happens when the node restarts
// before the previous attempt was acknowledged.
type EventSink interface {

	// IndexEvents stores the records of one committed block.
	IndexEvents(ctx context.Context, b Batch) error

	// Type returns the structure type of the sink.
	Type() EventSinkType

	// Stop will close the data store connection, if the sink supports it.
	Stop() error
}

// IndexingEnabled reports whether any of sinks stores events.
func IndexingEnabled(sinks []EventSink) bool {
	for _, sink := range sinks {
		if sink.Type() != NULL {
			return true
		}
	}
	return false
}
