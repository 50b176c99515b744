package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestEventRecordJSON(t *testing.T) {
	rec := EventRecord{
		Seq:    3,
		Height: 12,
		Event: &OptionSold{
			ID:     4,
			Seller: alice,
			Buyer:  bob,
			Amount: uint256.NewInt(250),
		},
	}

	bz, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Contains(t, string(bz), `"name":"OptionSold"`)

	var got EventRecord
	require.NoError(t, json.Unmarshal(bz, &got))
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("event record mismatch (-want +got):\n%s", diff)
	}

	require.Error(t, json.Unmarshal([]byte(`{"name":"Minted","data":{}}`), &got))
}

func TestEventFilters(t *testing.T) {
	records := []EventRecord{
		{Seq: 0, Height: 1, Event: &OptionCreated{ID: 0, Collateral: uint256.NewInt(1)}},
		{Seq: 1, Height: 1, Event: &Transfer{From: alice, To: EscrowAddress, Amount: uint256.NewInt(1)}},
		{Seq: 2, Height: 2, Event: &OptionCreated{ID: 1, Collateral: uint256.NewInt(1)}},
		{Seq: 3, Height: 3, Event: &OptionAddedToMarket{ID: 1, Amount: uint256.NewInt(5), Currency: "ETH"}},
	}

	apply := func(f EventFilter) (seqs []uint64) {
		for _, r := range records {
			if f(r) {
				seqs = append(seqs, r.Seq)
			}
		}
		return seqs
	}

	require.Equal(t, []uint64{0, 2}, apply(ByName(EventOptionCreated)))
	require.Equal(t, []uint64{2, 3}, apply(ByOption(1)))
	require.Equal(t, []uint64{0}, apply(ByOption(0)))
	require.Equal(t, []uint64{2, 3}, apply(SinceHeight(2)))
	require.Equal(t, []uint64{0, 1, 2, 3}, apply(MatchAll()))

	id := uint64(1)
	q := EventQuery{Names: []string{EventOptionAddedToMarket, EventOptionCreated}, OptionID: &id, SinceHeight: 3}
	require.Equal(t, []uint64{3}, apply(q.Filter()))
}

func TestEventAttributes(t *testing.T) {
	ev := &OptionCreated{ID: 2, Creator: alice, Owner: alice, CounterOffer: []uint64{90, 110}, Expires: 99}
	attrs := ev.Attributes()
	require.Equal(t, Attribute{"id", "2"}, attrs[0])
	require.Contains(t, attrs, Attribute{"counter_offer", "90,110"})
	require.Contains(t, attrs, Attribute{"collateral", "0"})
	require.Contains(t, attrs, Attribute{"status", "Created"})
}
