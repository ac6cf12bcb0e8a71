package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/stream"
)

const MaxBodyBytes = 1 << 20

// DefaultCancelReason is attached when the operator gives none.
const DefaultCancelReason = "Cancelado pelo Admin"

// Advancer is the slice of the synchronizer the board mutates through.
type Advancer interface {
	Advance(ctx context.Context, id string) (*order.Order, error)
	Cancel(ctx context.Context, id, reason string) (*order.Order, error)
	Refresh(ctx context.Context) error
}

type Handler struct {
	projector *Projector
	sync      Advancer
	hub       *stream.Hub
	logger    apt.Logger
	tlm       *telemetry.HTTP
}

func NewHandler(projector *Projector, sync Advancer, hub *stream.Hub, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		projector: projector,
		sync:      sync,
		hub:       hub,
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/board", h.GetBoard)
	r.Post("/board/refresh", h.RefreshBoard)
	r.Get("/board/events", h.StreamEvents)
	r.Route("/orders", func(r chi.Router) {
		r.Patch("/{id}/advance", h.AdvanceOrder)
		r.Patch("/{id}/cancel", h.CancelOrder)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBoard")
	defer finish()

	view := h.projector.Build(time.Now())
	apt.Respond(w, http.StatusOK, view, nil)
}

// RefreshBoard forces a reconciliation poll ahead of schedule.
func (h *Handler) RefreshBoard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RefreshBoard")
	defer finish()
	log := h.log(r)

	if err := h.sync.Refresh(r.Context()); err != nil {
		log.Errorf("cannot refresh board: %v", err)
		apt.RespondError(w, http.StatusBadGateway, "Could not refresh orders")
		return
	}

	apt.Respond(w, http.StatusOK, h.projector.Build(time.Now()), nil)
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdvanceOrder")
	defer finish()
	log := h.log(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing order ID")
		return
	}

	updated, err := h.sync.Advance(r.Context(), id)
	if err != nil {
		log.Errorf("cannot advance order %s: %v", id, err)
		apt.RespondError(w, http.StatusConflict, "Order cannot advance from its current status")
		return
	}

	apt.Respond(w, http.StatusOK, buildCard(updated, time.Now()), nil)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrder")
	defer finish()
	log := h.log(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing order ID")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.Reason == "" {
		req.Reason = DefaultCancelReason
	}

	updated, err := h.sync.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		log.Errorf("cannot cancel order %s: %v", id, err)
		apt.RespondError(w, http.StatusConflict, "Order cannot be cancelled")
		return
	}

	apt.Respond(w, http.StatusOK, buildCard(updated, time.Now()), nil)
}

// StreamEvents pushes board refresh signals over SSE. Clients rebuild
// from GET /board on each signal, the stream itself carries no order
// data.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	h.logger.Info("new SSE connection", "subscriber_id", subscriberID)

	signals := h.hub.Subscribe(subscriberID)
	defer h.hub.Unsubscribe(subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "subscriber_id", subscriberID)
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case sig, ok := <-signals:
			if !ok {
				h.logger.Info("signal channel closed", "subscriber_id", subscriberID)
				return
			}

			payload, err := json.Marshal(sig)
			if err != nil {
				h.logger.Error("cannot marshal signal", "error", err)
				continue
			}

			fmt.Fprintf(w, "event: board-update\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
