package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/adrian08041/cardapio/internal/cart"
	"github.com/adrian08041/cardapio/internal/orderapi"
)

const MaxBodyBytes = 1 << 20

// Handler is the storefront surface: cart mutations, checkout and
// order tracking.
type Handler struct {
	cart      *cart.Store
	pricer    *cart.Pricer
	submitter *Submitter
	api       Getter
	logger    apt.Logger
	tlm       *telemetry.HTTP
}

func NewHandler(cartStore *cart.Store, pricer *cart.Pricer, submitter *Submitter, api Getter, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		cart:      cartStore,
		pricer:    pricer,
		submitter: submitter,
		api:       api,
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items", h.UpdateItem)
		r.Delete("/items", h.RemoveItem)
		r.Post("/coupon", h.ApplyCoupon)
		r.Delete("/coupon", h.RemoveCoupon)
	})
	r.Post("/checkout", h.Checkout)
	r.Get("/orders/{id}/tracking", h.GetTracking)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// cartView is the cart plus its live quote for the given order context.
type cartView struct {
	Cart  cart.Snapshot `json:"cart"`
	Quote cart.Quote    `json:"quote"`
}

func (h *Handler) respondCart(w http.ResponseWriter, orderType, paymentMethod string) {
	snap := h.cart.Snapshot()
	apt.Respond(w, http.StatusOK, cartView{
		Cart:  snap,
		Quote: h.pricer.Quote(snap, orderType, paymentMethod),
	}, nil)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCart")
	defer finish()

	h.respondCart(w, r.URL.Query().Get("order_type"), r.URL.Query().Get("payment_method"))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()

	var req struct {
		ProductID string  `json:"product_id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Station   string  `json:"station"`
		Quantity  int     `json:"quantity"`
		Notes     string  `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	h.cart.AddItem(r.Context(), cart.Product{
		ID:      req.ProductID,
		Name:    req.Name,
		Price:   req.Price,
		Station: req.Station,
	}, req.Quantity, req.Notes)

	h.respondCart(w, "", "")
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateItem")
	defer finish()

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Notes     string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing product ID")
		return
	}

	h.cart.UpdateQuantity(r.Context(), req.ProductID, req.Quantity, req.Notes)
	h.respondCart(w, "", "")
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()

	var req struct {
		ProductID string `json:"product_id"`
		Notes     string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	h.cart.RemoveItem(r.Context(), req.ProductID, req.Notes)
	h.respondCart(w, "", "")
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ApplyCoupon")
	defer finish()
	log := h.log(r)

	var req struct {
		Code      string `json:"code"`
		OrderType string `json:"order_type"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.cart.ApplyCoupon(r.Context(), req.Code, req.OrderType); err != nil {
		log.Debug("coupon rejected", "code", req.Code, "error", err)
		apt.RespondError(w, http.StatusUnprocessableEntity, couponMessage(err))
		return
	}

	h.respondCart(w, req.OrderType, "")
}

func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveCoupon")
	defer finish()

	h.cart.RemoveCoupon(r.Context())
	h.respondCart(w, "", "")
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Checkout")
	defer finish()
	log := h.log(r)

	var form Form
	if !h.decode(w, r, &form) {
		return
	}

	created, fieldErrs, err := h.submitter.Submit(r.Context(), form)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			apt.RespondError(w, http.StatusUnprocessableEntity, "Cart is empty")
			return
		}
		log.Errorf("cannot submit order: %v", err)
		apt.RespondError(w, http.StatusBadGateway, "Could not submit order")
		return
	}
	if fieldErrs.HasErrors() {
		apt.Respond(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"field_errors": fieldErrs,
		}, nil)
		return
	}

	apt.Respond(w, http.StatusCreated, created, nil)
}

func (h *Handler) GetTracking(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTracking")
	defer finish()
	log := h.log(r)

	id := chi.URLParam(r, "id")
	o, err := h.api.Get(r.Context(), id)
	if err != nil {
		if orderapi.IsNotFound(err) {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Errorf("cannot fetch order %s: %v", id, err)
		apt.RespondError(w, http.StatusBadGateway, "Could not fetch order")
		return
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.Respond(w, http.StatusOK, BuildTimeline(o), nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func couponMessage(err error) string {
	switch {
	case errors.Is(err, cart.ErrCouponDeliveryOnly):
		return "This coupon is valid for delivery orders only"
	case errors.Is(err, cart.ErrInvalidCoupon):
		return "Invalid coupon code"
	default:
		return "Could not apply coupon"
	}
}
