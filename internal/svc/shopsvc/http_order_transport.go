package shopsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

// ErrNoOrderID is returned when the order ID is missing from the request.
var ErrNoOrderID = errors.New("no order id")

type checkoutRequest struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
}

type createTicketRequest struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

func (ht *HTTPTransport) orderIDPathValue(r *http.Request) (int64, error) {
	raw := r.PathValue(ht.cfg.URLOrderIDParam)
	if raw == "" {
		return 0, ErrNoOrderID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse order id: %w", err)
	}

	return id, nil
}

// HandleCheckout places an order from the browsing session's cart.
// Expects a JSON body with shippingAddress.
func (ht *HTTPTransport) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCheckout(w, r)
}

func (ht *HTTPTransport) handleCheckout(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "checkout failed", "error", err)
		} else {
			log.DebugContext(ctx, "order placed")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	email, err := userEmail(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return err
	}

	log = log.With(logging.Group("user", "email", email))

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	placed, err := ht.shopSvc.Checkout(r.Context(), id, email, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrUserNotFound):
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		default:
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("checkout: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(placed); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleListOrders returns the authenticated account's orders.
func (ht *HTTPTransport) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleListOrders(w, r)
}

func (ht *HTTPTransport) handleListOrders(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "list orders failed", "error", err)
		} else {
			log.DebugContext(ctx, "orders listed")
		}
	}(r.Context())

	email, err := userEmail(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return err
	}

	orders, err := ht.shopSvc.ListOrders(r.Context(), email)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("list orders: %w", err)
	}

	return ht.writeJSON(w, orders)
}

// HandleGetOrder returns one of the authenticated account's orders.
func (ht *HTTPTransport) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetOrder(w, r)
}

func (ht *HTTPTransport) handleGetOrder(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get order failed", "error", err)
		} else {
			log.DebugContext(ctx, "order fetched")
		}
	}(r.Context())

	email, err := userEmail(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return err
	}

	orderID, err := ht.orderIDPathValue(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	placed, err := ht.shopSvc.GetOrder(r.Context(), email, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get order: %w", err)
	}

	return ht.writeJSON(w, placed)
}

// HandleCancelOrder cancels one of the authenticated account's orders.
func (ht *HTTPTransport) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCancelOrder(w, r)
}

func (ht *HTTPTransport) handleCancelOrder(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "cancel order failed", "error", err)
		} else {
			log.DebugContext(ctx, "order cancelled")
		}
	}(r.Context())

	email, err := userEmail(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return err
	}

	orderID, err := ht.orderIDPathValue(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	if err := ht.shopSvc.CancelOrder(r.Context(), email, orderID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("cancel order: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleCreateTicket opens a support ticket for the authenticated account.
// Expects a JSON body with subject, message, and an optional priority.
func (ht *HTTPTransport) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreateTicket(w, r)
}

func (ht *HTTPTransport) handleCreateTicket(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "create ticket failed", "error", err)
		} else {
			log.DebugContext(ctx, "ticket created")
		}
	}(r.Context())

	email, err := userEmail(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return err
	}

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	if req.Subject == "" || req.Message == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("create ticket: %w", errMissingTicketFields)
	}

	ticket, err := ht.shopSvc.CreateTicket(r.Context(), email, req.Subject, req.Message, req.Priority)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("create ticket: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ticket); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

var errMissingTicketFields = errors.New("missing subject or message")

// HandleListTickets returns the authenticated account's support tickets.
func (ht *HTTPTransport) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleListTickets(w, r)
}

func (ht *HTTPTransport) handleListTickets(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "list tickets failed", "error", err)
		} else {
			log.DebugContext(ctx, "tickets listed")
		}
	}(r.Context())

	email, err := userEmail(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return err
	}

	tickets, err := ht.shopSvc.ListTickets(r.Context(), email)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("list tickets: %w", err)
	}

	return ht.writeJSON(w, tickets)
}
