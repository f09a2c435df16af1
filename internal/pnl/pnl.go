// Package pnl derives profit/loss figures from a watchlist and the live
// price map. Everything here is a pure function over its inputs: identical
// inputs yield identical outputs, independent of the simulator's randomness.
package pnl

import (
	"watchlist-systemv1/internal/model"
)

// Direction drives gain/loss presentation styling downstream.
type Direction string

const (
	DirectionGain Direction = "gain" // non-negative P&L
	DirectionLoss Direction = "loss"
)

// CurrentPrice returns the live price for entry, falling back to its
// add-time initial price when the simulator has not produced one. The one
// total function used by every consumer, so null-handling never diverges.
func CurrentPrice(e model.WatchlistEntry, prices map[string]int64) int64 {
	if p, ok := prices[e.Symbol]; ok {
		return p
	}
	return e.InitialPrice
}

// PerInstrument returns current − initial in cents for one entry.
func PerInstrument(e model.WatchlistEntry, prices map[string]int64) int64 {
	return CurrentPrice(e, prices) - e.InitialPrice
}

// Aggregate sums PerInstrument over all entries. An empty watchlist
// yields exactly 0.
func Aggregate(entries []model.WatchlistEntry, prices map[string]int64) int64 {
	var total int64
	for _, e := range entries {
		total += PerInstrument(e, prices)
	}
	return total
}

// Row is one instrument's derived display record.
type Row struct {
	Symbol       string    `json:"symbol"`
	Name         string    `json:"company"`
	InitialPrice string    `json:"initial_price"`
	LivePrice    string    `json:"live_price"`
	PnL          string    `json:"pnl"`
	Direction    Direction `json:"direction"`
}

// Snapshot is the full derived display state. HasData lets consumers
// present a distinct "no data" state instead of a zero-value chart when
// the watchlist is empty.
type Snapshot struct {
	Rows    []Row  `json:"rows"`
	Total   string `json:"total"`
	HasData bool   `json:"has_data"`
}

// BuildSnapshot derives the display snapshot for entries against prices.
func BuildSnapshot(entries []model.WatchlistEntry, prices map[string]int64) Snapshot {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		diff := PerInstrument(e, prices)
		dir := DirectionGain
		if diff < 0 {
			dir = DirectionLoss
		}
		rows = append(rows, Row{
			Symbol:       e.Symbol,
			Name:         e.Name,
			InitialPrice: model.FormatPrice(e.InitialPrice),
			LivePrice:    model.FormatPrice(CurrentPrice(e, prices)),
			PnL:          model.FormatPrice(diff),
			Direction:    dir,
		})
	}
	return Snapshot{
		Rows:    rows,
		Total:   model.FormatPrice(Aggregate(entries, prices)),
		HasData: len(entries) > 0,
	}
}
