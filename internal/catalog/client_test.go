package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"symbol":"RELIANCE.NSE","company":"Reliance Industries Ltd.","initial_price":2900.50},
			{"symbol":"INFY.NSE","company":"Infosys Ltd.","initial_price":1620.75}
		]`))
	}))
	defer srv.Close()

	instruments, err := NewClient(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(instruments) != 2 {
		t.Fatalf("expected 2 instruments, got %d", len(instruments))
	}

	// Decimal price strings convert to exact cents
	if instruments[0].InitialPrice != 290050 {
		t.Errorf("RELIANCE price = %d cents, want 290050", instruments[0].InitialPrice)
	}
	if instruments[1].Symbol != "INFY.NSE" || instruments[1].InitialPrice != 162075 {
		t.Errorf("INFY = %+v, want symbol INFY.NSE at 162075 cents", instruments[1])
	}
}

func TestClient_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestClient_FetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClient_FetchUnreachable(t *testing.T) {
	// Closed server — connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewClient(url).Fetch(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
}
