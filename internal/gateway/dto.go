package gateway

import (
	"encoding/json"

	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/pnl"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string     `json:"token"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

// addStockRequest is the instrument the client asks to follow, as served
// by the catalog (decimal price, converted to cents on the way in).
type addStockRequest struct {
	Symbol       string      `json:"symbol"`
	Company      string      `json:"company"`
	InitialPrice json.Number `json:"initial_price"`
}

// stockResponse is a catalog instrument on the wire. initial_price carries
// the same 2-decimal number form the add endpoint consumes, so a client
// can post a fetched stock back unchanged.
type stockResponse struct {
	Symbol       string          `json:"symbol"`
	Company      string          `json:"company"`
	InitialPrice json.RawMessage `json:"initial_price"`
}

func newStockResponse(inst model.Instrument) stockResponse {
	return stockResponse{
		Symbol:       inst.Symbol,
		Company:      inst.Name,
		InitialPrice: json.RawMessage(model.FormatPrice(inst.InitialPrice)),
	}
}

type addUserRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// watchlistResponse is the full per-session view: the canonical entry set,
// the live-price map, and the derived P&L snapshot.
type watchlistResponse struct {
	Entries []model.WatchlistEntry `json:"entries"`
	Prices  map[string]int64       `json:"prices"`
	PnL     pnl.Snapshot           `json:"pnl"`
	Message string                 `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}
