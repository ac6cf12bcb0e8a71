package kds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/internal/stream"
	"github.com/adrian08041/cardapio/pkg/enums/station"
)

// Advancer is the slice of the synchronizer the display mutates through.
type Advancer interface {
	Advance(ctx context.Context, id string) (*order.Order, error)
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
	r.Get("/lanes", h.ListLanes)
	r.Get("/lanes/{station}", h.GetLane)
	r.Get("/lanes/events", h.StreamEvents)
	r.Patch("/orders/{id}/advance", h.AdvanceOrder)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) ListLanes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListLanes")
	defer finish()

	now := time.Now()
	view := h.projector.Build(now)

	// Optional third column, as in the display settings.
	if q := r.URL.Query().Get("include_ready"); q == "1" || q == "true" {
		ready := h.projector.BuildReady(now)
		view.Ready = &ready
	}

	apt.Respond(w, http.StatusOK, view, nil)
}

func (h *Handler) GetLane(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetLane")
	defer finish()

	name := chi.URLParam(r, "station")
	if station.ByName(name) == nil {
		apt.RespondError(w, http.StatusNotFound, "Unknown station")
		return
	}

	apt.Respond(w, http.StatusOK, h.projector.BuildLane(name, time.Now()), nil)
}

// AdvanceOrder moves the whole order forward. The lifecycle is shared
// across stations, so a bar bump advances the kitchen's view too.
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

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"order_id": updated.ID,
		"status":   updated.Status,
	}, nil)
}

// StreamEvents pushes lane refresh signals over SSE.
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

			fmt.Fprintf(w, "event: lane-update\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
