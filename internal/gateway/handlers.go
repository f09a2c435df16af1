package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"watchlist-systemv1/internal/account"
	"watchlist-systemv1/internal/metrics"
	"watchlist-systemv1/internal/model"
	"watchlist-systemv1/internal/session"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Server holds the gateway's collaborators.
type Server struct {
	sessions *session.Manager
	catalog  model.Catalog
	hub      *Hub
	prom     *metrics.Metrics
}

// NewServer creates the gateway over the session manager, catalog client,
// WS hub and metrics.
func NewServer(sessions *session.Manager, catalog model.Catalog, hub *Hub, prom *metrics.Metrics) *Server {
	return &Server{sessions: sessions, catalog: catalog, hub: hub, prom: prom}
}

// Routes builds the HTTP mux for the gateway.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/api/stocks", s.handleStocks)
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)
	mux.HandleFunc("/api/watchlist/", s.handleWatchlistSymbol)
	mux.HandleFunc("/api/pnl", s.handlePnL)
	mux.HandleFunc("/api/users", s.handleUsers)
	mux.HandleFunc("/api/users/", s.handleUserDelete)
	mux.HandleFunc("/ws", s.handleWS)

	return mux
}

// ---- Session plumbing ----

// token extracts the session token from "Authorization: Bearer <tok>" or
// the ?token query parameter (the latter for WS clients).
func token(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// activeSession resolves the request's session or writes a 401.
func (s *Server) activeSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(token(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, session.ErrNoSession.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) syncGauges() {
	s.prom.ActiveSessions.Set(float64(s.sessions.ActiveSessions()))
	s.prom.RunningSimulators.Set(float64(s.sessions.RunningSimulators()))
}

// ---- Auth ----

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.prom.MalformedPayloads.Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.prom.LoginsTotal.Inc()
	s.syncGauges()
	writeJSON(w, http.StatusOK, loginResponse{
		Token:    sess.Token,
		Username: sess.Identity(),
		Role:     sess.Account.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.sessions.Logout(token(r))
	s.syncGauges()
	w.WriteHeader(http.StatusNoContent)
}

// ---- Catalog ----

// handleStocks proxies the instrument catalog. A catalog failure is a
// display-only error: watchlist and live-price state are untouched.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if _, ok := s.activeSession(w, r); !ok {
		return
	}

	instruments, err := s.catalog.Fetch(r.Context())
	if err != nil {
		s.prom.CatalogErrors.Inc()
		log.Printf("[gateway] catalog fetch failed: %v", err)
		writeError(w, http.StatusBadGateway, "failed to fetch stock data, please try again later")
		return
	}

	stocks := make([]stockResponse, 0, len(instruments))
	for _, inst := range instruments {
		stocks = append(stocks, newStockResponse(inst))
	}
	writeJSON(w, http.StatusOK, stocks)
}

// ---- Watchlist ----

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	sess, ok := s.activeSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, watchlistResponse{
			Entries: sess.Entries(),
			Prices:  sess.Prices(),
			PnL:     sess.Snapshot(),
		})

	case http.MethodPost:
		var req addStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
			s.prom.MalformedPayloads.Inc()
			writeError(w, http.StatusBadRequest, "invalid stock payload")
			return
		}
		cents, err := model.ParsePrice(req.InitialPrice.String())
		if err != nil {
			s.prom.MalformedPayloads.Inc()
			writeError(w, http.StatusBadRequest, "invalid initial_price")
			return
		}

		before := len(sess.Entries())
		entries, err := s.sessions.AddToWatchlist(r.Context(), sess.Token, model.Instrument{
			Symbol:       req.Symbol,
			Name:         req.Company,
			InitialPrice: cents,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		msg := fmt.Sprintf("%s added to watchlist", req.Symbol)
		if len(entries) == before {
			msg = fmt.Sprintf("%s is already in your watchlist", req.Symbol)
		} else {
			s.prom.WatchlistOpsTotal.WithLabelValues("add").Inc()
		}
		s.syncGauges()
		writeJSON(w, http.StatusOK, watchlistResponse{
			Entries: entries,
			Prices:  sess.Prices(),
			PnL:     sess.Snapshot(),
			Message: msg,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required")
	}
}

// handleWatchlistSymbol serves DELETE /api/watchlist/{symbol}.
func (s *Server) handleWatchlistSymbol(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "DELETE required")
		return
	}
	sess, ok := s.activeSession(w, r)
	if !ok {
		return
	}

	symbol := strings.TrimPrefix(r.URL.Path, "/api/watchlist/")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}

	entries, err := s.sessions.RemoveFromWatchlist(r.Context(), sess.Token, symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.prom.WatchlistOpsTotal.WithLabelValues("remove").Inc()
	s.syncGauges()
	writeJSON(w, http.StatusOK, watchlistResponse{
		Entries: entries,
		Prices:  sess.Prices(),
		PnL:     sess.Snapshot(),
	})
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	sess, ok := s.activeSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// ---- User management (admin) ----

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	sess, ok := s.activeSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		accts, err := s.sessions.Accounts(r.Context(), sess.Token)
		if err != nil {
			writeAccountError(w, err)
			return
		}
		// Never echo secrets back out
		type userView struct {
			Username string     `json:"username"`
			Role     model.Role `json:"role"`
		}
		views := make([]userView, 0, len(accts))
		for _, a := range accts {
			views = append(views, userView{Username: a.Username, Role: a.Role})
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req addUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.prom.MalformedPayloads.Inc()
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err := s.sessions.CreateAccount(r.Context(), sess.Token, model.Account{
			Username: req.Username,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeAccountError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, messageResponse{Message: "user added successfully"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required")
	}
}

// handleUserDelete serves DELETE /api/users/{username}.
func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "DELETE required")
		return
	}
	sess, ok := s.activeSession(w, r)
	if !ok {
		return
	}

	username := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}

	if err := s.sessions.DeleteAccount(r.Context(), sess.Token, username); err != nil {
		writeAccountError(w, err)
		return
	}
	s.syncGauges()
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("user %s removed successfully", username),
	})
}

// ---- WebSocket ----

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(token(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, session.ErrNoSession.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}
	s.hub.Register(conn, sess.Identity())
}

// ---- Helpers ----

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeAccountError maps policy violations to user-visible HTTP errors.
func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrNotAdmin):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, account.ErrSelfRemoval),
		errors.Is(err, account.ErrLastAdmin),
		errors.Is(err, account.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
