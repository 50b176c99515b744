package indexer

import (
	"strconv"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/constellation-lab/constellation-zkevm/types"
)

// SeqKey is the attribute carrying the ledger sequence number of an event.
const SeqKey = "seq"

// ABCIEvent converts rec into the event Tendermint indexes for the transaction
// that produced it. Every attribute is indexed.
func ABCIEvent(rec types.EventRecord) abci.Event {
	attrs := rec.Event.Attributes()
	ev := abci.Event{
		Type:       rec.Name(),
		Attributes: make([]abci.EventAttribute, 0, len(attrs)+1),
	}
	ev.Attributes = append(ev.Attributes, abci.EventAttribute{
		Key:   []byte(SeqKey),
		Value: []byte(strconv.FormatUint(rec.Seq, 10)),
		Index: true,
	})
	for _, a := range attrs {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{
			Key:   []byte(a.Key),
			Value: []byte(a.Value),
			Index: true,
		})
	}
	return ev
}

func ABCIEvents(recs []types.EventRecord) []abci.Event {
	if len(recs) == 0 {
		return nil
	}
	evs := make([]abci.Event, len(recs))
	for i, rec := range recs {
		evs[i] = ABCIEvent(rec)
	}
	return evs
}
