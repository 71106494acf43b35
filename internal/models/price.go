package models

import "time"

// MaxHistoricalPrices caps how many superseded prices are retained per listing.
const MaxHistoricalPrices = 50

// MaxPricePerKg is the upper bound accepted for any listing.
const MaxPricePerKg = 1000

// PricePoint is one superseded price and the moment it stopped being current.
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Price is the current per-kilogram price a mill quotes for one variety.
// There is at most one Price per (MillID, RiceVariety).
type Price struct {
	ID               string
	MillID           string
	Mill             *MillSummary // populated only by public listings
	RiceVariety      RiceVariety
	PricePerKg       float64
	UpdateTimestamp  time.Time
	HistoricalPrices []PricePoint
	District         string
}

// Record makes newPrice current as of at. The previous value is appended to the
// history even when it equals newPrice, and only the newest
// MaxHistoricalPrices entries are kept.
func (p *Price) Record(newPrice float64, at time.Time) {
	p.HistoricalPrices = append(p.HistoricalPrices, PricePoint{
		Price:     p.PricePerKg,
		Timestamp: p.UpdateTimestamp,
	})
	if n := len(p.HistoricalPrices); n > MaxHistoricalPrices {
		trimmed := make([]PricePoint, MaxHistoricalPrices)
		copy(trimmed, p.HistoricalPrices[n-MaxHistoricalPrices:])
		p.HistoricalPrices = trimmed
	}
	p.PricePerKg = newPrice
	p.UpdateTimestamp = at
}

// History returns the stored history followed by the current price, oldest first.
func (p *Price) History() []PricePoint {
	out := make([]PricePoint, 0, len(p.HistoricalPrices)+1)
	out = append(out, p.HistoricalPrices...)
	return append(out, PricePoint{Price: p.PricePerKg, Timestamp: p.UpdateTimestamp})
}

// PriceFilter narrows price listings. Empty fields do not filter.
type PriceFilter struct {
	District    string
	RiceVariety RiceVariety
}
