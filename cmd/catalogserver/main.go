// cmd/catalogserver — Demo instrument catalog server.
// Serves a fixed NSE instrument list for running the watchlist engine
// without a real market-data vendor.
//
// Response shape for GET /api/stocks:
//
//	[{"symbol":"RELIANCE.NSE","company":"Reliance Industries","initial_price":2900.50}, ...]
//
// initial_price carries two decimals; the engine converts to integer
// cents on ingest.
//
// Config (env vars):
//
//	CATALOG_ADDR — listen address (default: ":9002")
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
)

// stock is one catalog row in wire form.
type stock struct {
	Symbol       string  `json:"symbol"`
	Company      string  `json:"company"`
	InitialPrice float64 `json:"initial_price"`
}

var catalog = []stock{
	{Symbol: "RELIANCE.NSE", Company: "Reliance Industries", InitialPrice: 2900.50},
	{Symbol: "TCS.NSE", Company: "Tata Consultancy Services", InitialPrice: 3810.20},
	{Symbol: "HDFCBANK.NSE", Company: "HDFC Bank", InitialPrice: 1510.00},
	{Symbol: "INFY.NSE", Company: "Infosys", InitialPrice: 1620.75},
	{Symbol: "ICICIBANK.NSE", Company: "ICICI Bank", InitialPrice: 1120.00},
}

func main() {
	addr := envOrDefault("CATALOG_ADDR", ":9002")

	mux := http.NewServeMux()

	mux.HandleFunc("/api/stocks", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(catalog)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Printf("[catalogserver] serving %d instruments at http://localhost%s/api/stocks", len(catalog), addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[catalogserver] server error: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
