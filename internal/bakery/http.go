package bakery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniBakery/internal/auth"
	"MiniBakery/pkg/kit"
)

type Server struct {
	Bakery *Bakery
	Tokens *auth.TokenMaker
	Log    *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/bakery", s.summary)
	r.Get("/register", s.register)
	r.Get("/goods", s.listGoods)
	r.Get("/prices/{type}", s.getPrice)
	r.Get("/goods/{type}/stock", s.stock)
	r.Get("/goods/{type}/oldest", s.oldest)
	r.Post("/goods/{type}/purchase", s.purchase)
	r.Get("/items/{id}", s.getItem)
	r.Post("/items/{id}/consume", s.consume)

	r.Group(func(sr chi.Router) {
		sr.Use(auth.RequireRole(s.Tokens, auth.RoleBaker))
		sr.Put("/prices/{type}", s.setPrice)
		sr.Post("/goods/{type}", s.produce)
	})

	return r
}

type priceResp struct {
	Type  string  `json:"type"`
	Price float64 `json:"price"`
}

type stockResp struct {
	Type              string  `json:"type"`
	Price             float64 `json:"price"`
	QuantityRemaining int     `json:"quantity_remaining"`
	InventoryValue    float64 `json:"inventory_value"`
}

type registerResp struct {
	Total float64 `json:"total"`
}

type consumeResp struct {
	Consumed bool     `json:"consumed"`
	Item     GoodView `json:"item"`
}

type setPriceReq struct {
	Amount json.RawMessage `json:"amount"`
}

type purchaseReq struct {
	Quantity json.RawMessage `json:"quantity"`
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Bakery.Summary())
}

func (s *Server) register(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, registerResp{Total: s.Bakery.InspectRegister()})
}

func (s *Server) listGoods(w http.ResponseWriter, _ *http.Request) {
	types := s.Bakery.Types()
	out := make([]stockResp, 0, len(types))
	for _, kind := range types {
		out = append(out, s.stockOf(kind))
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")
	kit.WriteJSON(w, http.StatusOK, priceResp{Type: kind, Price: s.Bakery.AskPrice(kind)})
}

func (s *Server) setPrice(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")

	var req setPriceReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	amount, present, err := parseNumber(req.Amount)
	if err == nil && !present {
		err = fmt.Errorf("%w: amount is required", ErrInvalidArgument)
	}
	if err == nil {
		err = s.Bakery.SetPrice(kind, amount)
	}
	if err != nil {
		s.writeBakeryError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, priceResp{Type: kind, Price: s.Bakery.AskPrice(kind)})
}

func (s *Server) produce(w http.ResponseWriter, r *http.Request) {
	g := s.Bakery.Produce(chi.URLParam(r, "type"))
	kit.WriteJSON(w, http.StatusCreated, g.View())
}

func (s *Server) stock(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.stockOf(chi.URLParam(r, "type")))
}

func (s *Server) oldest(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")

	g := s.Bakery.RetrieveOldest(kind)
	if g == nil {
		kit.WriteError(w, r, http.StatusNotFound, "none available", map[string]any{"type": kind})
		return
	}
	kit.WriteJSON(w, http.StatusOK, g.View())
}

// purchase answers with a single item when no quantity was sent and with
// a list whenever a quantity was given, including 1.
func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")

	var req purchaseReq
	if err := kit.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	qty, present, err := parseQuantity(req.Quantity)
	if err != nil {
		s.writeBakeryError(w, r, err)
		return
	}

	if !present {
		g, err := s.Bakery.PurchaseOne(kind)
		if err != nil {
			s.writeBakeryError(w, r, err)
			return
		}
		kit.WriteJSON(w, http.StatusOK, g.View())
		return
	}

	goods, err := s.Bakery.PurchaseMany(kind, qty)
	if err != nil {
		s.writeBakeryError(w, r, err)
		return
	}
	out := make([]GoodView, 0, len(goods))
	for _, g := range goods {
		out = append(out, g.View())
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, g.View())
}

func (s *Server) consume(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	consumed := g.Consume()
	kit.WriteJSON(w, http.StatusOK, consumeResp{Consumed: consumed, Item: g.View()})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Good, bool) {
	id := chi.URLParam(r, "id")
	g, ok := s.Bakery.Lookup(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return nil, false
	}
	return g, true
}

func (s *Server) stockOf(kind string) stockResp {
	return stockResp{
		Type:              kind,
		Price:             s.Bakery.AskPrice(kind),
		QuantityRemaining: s.Bakery.QuantityRemaining(kind),
		InventoryValue:    s.Bakery.InventoryValue(kind),
	}
}

func (s *Server) writeBakeryError(w http.ResponseWriter, r *http.Request, err error) {
	details := map[string]any{"cause": err.Error()}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		kit.WriteError(w, r, http.StatusBadRequest, ErrInvalidArgument.Error(), details)
	case errors.Is(err, ErrUnknownGood):
		kit.WriteError(w, r, http.StatusNotFound, ErrUnknownGood.Error(), details)
	case errors.Is(err, ErrInsufficientStock):
		kit.WriteError(w, r, http.StatusConflict, ErrInsufficientStock.Error(), details)
	default:
		if s.Log != nil {
			s.Log.Error("bakery operation failed", zap.Error(err), zap.String("path", r.URL.Path))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// parseNumber accepts only a bare JSON number. present is false when the
// field was omitted or null.
func parseNumber(raw json.RawMessage) (v float64, present bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, true, fmt.Errorf("%w: expected a number, got %s", ErrInvalidArgument, raw)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, true, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return v, true, nil
}

func parseQuantity(raw json.RawMessage) (int, bool, error) {
	f, present, err := parseNumber(raw)
	if err != nil || !present {
		return 0, present, err
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, true, fmt.Errorf("%w: quantity must be a positive integer, got %v", ErrInvalidArgument, f)
	}
	return int(f), true, nil
}
