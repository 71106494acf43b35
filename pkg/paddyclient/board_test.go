package paddyclient

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPriceEvent(t *testing.T, millID, variety string, price float64) Event {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"_id":         "p-" + millID + variety,
		"millId":      millID,
		"riceVariety": variety,
		"pricePerKg":  price,
	})
	require.NoError(t, err)
	return Event{Name: EventNewPrice, Data: data}
}

func TestReducePrices_AppendsUnknownPair(t *testing.T) {
	state := []Price{{Mill: MillRef{ID: "m1"}, RiceVariety: "Basmati", PricePerKg: 100}}

	next := ReducePrices(state, newPriceEvent(t, "m1", "Red Rice", 80))

	require.Len(t, next, 2)
	assert.Equal(t, "Red Rice", next[1].RiceVariety)
	assert.Len(t, state, 1, "input state must not change")
}

func TestReducePrices_ReplacesMatchingPairAndKeepsSummary(t *testing.T) {
	summary := &MillSummary{ID: "m1", Name: "Golden Rice Mill"}
	state := []Price{
		{Mill: MillRef{ID: "m1", Summary: summary}, RiceVariety: "Basmati", PricePerKg: 100},
		{Mill: MillRef{ID: "m2"}, RiceVariety: "Basmati", PricePerKg: 95},
	}

	next := ReducePrices(state, newPriceEvent(t, "m1", "Basmati", 110))

	require.Len(t, next, 2)
	assert.Equal(t, 110.0, next[0].PricePerKg)
	assert.Same(t, summary, next[0].Mill.Summary)
	assert.Equal(t, 100.0, state[0].PricePerKg, "input state must not change")
	assert.Equal(t, 95.0, next[1].PricePerKg)
}

func TestReducePrices_IgnoresOtherEventsAndBadPayloads(t *testing.T) {
	state := []Price{{Mill: MillRef{ID: "m1"}, RiceVariety: "Basmati", PricePerKg: 100}}

	cases := map[string]Event{
		"other event":  {Name: EventPriceUpdate, Data: json.RawMessage(`{"millId":"m1","riceVariety":"Basmati"}`)},
		"null data":    {Name: EventNewPrice, Data: json.RawMessage(`null`)},
		"not a price":  {Name: EventNewPrice, Data: json.RawMessage(`"hello"`)},
		"missing mill": {Name: EventNewPrice, Data: json.RawMessage(`{"riceVariety":"Basmati","pricePerKg":1}`)},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, state, ReducePrices(state, ev))
		})
	}
}

func TestReducePrices_DecodesPopulatedMill(t *testing.T) {
	ev := Event{Name: EventNewPrice, Data: json.RawMessage(
		`{"millId":{"_id":"m9","name":"River Mill","location":{"district":"Kandy"}},"riceVariety":"Basmati","pricePerKg":120}`)}

	next := ReducePrices(nil, ev)

	require.Len(t, next, 1)
	assert.Equal(t, "m9", next[0].Mill.ID)
	require.NotNil(t, next[0].Mill.Summary)
	assert.Equal(t, "Kandy", next[0].Mill.Summary.Location.District)
}

func TestPriceFilter_DropsPricesOutsideFilter(t *testing.T) {
	event := func(district, variety string) Event {
		data, err := json.Marshal(map[string]any{
			"millId": "m1", "riceVariety": variety, "pricePerKg": 100, "district": district,
		})
		require.NoError(t, err)
		return Event{Name: EventNewPrice, Data: data}
	}

	var got []Event
	dispatch := PriceFilter{District: "Kandy", RiceVariety: "Basmati"}.Events(func(ev Event) {
		got = append(got, ev)
	})

	dispatch(event("Kandy", "Basmati"))
	dispatch(event("Galle", "Basmati"))
	dispatch(event("Kandy", "Red Rice"))
	dispatch(event("", "Basmati"))
	dispatch(Event{Name: EventNewPrice, Data: json.RawMessage(`"garbage"`)})
	dispatch(Event{Name: EventPriceUpdate, Data: json.RawMessage(`{}`)})

	require.Len(t, got, 2)
	p, err := got[0].Price()
	require.NoError(t, err)
	assert.Equal(t, "Kandy", p.District)
	assert.Equal(t, EventPriceUpdate, got[1].Name)
}

func TestPriceFilter_EmptyMatchesEverything(t *testing.T) {
	calls := 0
	dispatch := PriceFilter{}.Events(func(Event) { calls++ })

	dispatch(newPriceEvent(t, "m1", "Basmati", 100))
	dispatch(newPriceEvent(t, "m2", "Red Rice", 80))

	assert.Equal(t, 2, calls)
	assert.True(t, PriceFilter{}.Matches(Price{District: "Galle"}))
	assert.False(t, PriceFilter{District: "Kandy"}.Matches(Price{District: "Galle"}))
}

func TestBoard_PublishesLatestState(t *testing.T) {
	board := NewBoard([]Price{{Mill: MillRef{ID: "m1"}, RiceVariety: "Basmati", PricePerKg: 100}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go board.Run(ctx)

	board.Dispatch(Event{Name: EventPriceUpdate})
	board.Dispatch(newPriceEvent(t, "m1", "Basmati", 105))

	select {
	case state := <-board.Updates():
		require.Len(t, state, 1)
		assert.Equal(t, 105.0, state[0].PricePerKg)
	case <-time.After(2 * time.Second):
		t.Fatal("no board update")
	}
}
