package model

// Instrument is a tradable symbol supplied by the remote catalog.
// Price is stored as int64 in cents (1 unit = 100 cents) to avoid float
// drift; "rounded to 2 decimal places" is exact integer arithmetic.
type Instrument struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"company"`
	InitialPrice int64  `json:"initial_price"` // cents
}
