package model

// WatchlistEntry is an instrument snapshot captured at the moment the user
// added it. InitialPrice is fixed at add-time; later catalog updates do not
// touch persisted entries.
type WatchlistEntry struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"company"`
	InitialPrice int64  `json:"initial_price"` // cents, frozen at add-time
}

// NewWatchlistEntry snapshots an instrument into a watchlist entry.
func NewWatchlistEntry(inst Instrument) WatchlistEntry {
	return WatchlistEntry{
		Symbol:       inst.Symbol,
		Name:         inst.Name,
		InitialPrice: inst.InitialPrice,
	}
}

// HasSymbol reports whether entries already contains symbol.
// Symbols are unique within one account's watchlist.
func HasSymbol(entries []WatchlistEntry, symbol string) bool {
	for _, e := range entries {
		if e.Symbol == symbol {
			return true
		}
	}
	return false
}
