package shopsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

type addCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type addWishlistItemRequest struct {
	ProductID int64 `json:"productId"`
}

func (ht *HTTPTransport) productIDPathValue(r *http.Request) (int64, error) {
	raw := r.PathValue(ht.cfg.URLProductIDParam)
	if raw == "" {
		return 0, ErrNoProductID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse product id: %w", err)
	}

	return id, nil
}

// HandleGetCart returns the session's cart snapshot.
func (ht *HTTPTransport) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetCart(w, r)
}

func (ht *HTTPTransport) handleGetCart(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get cart failed", "error", err)
		} else {
			log.DebugContext(ctx, "cart fetched")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	cart := ht.shopSvc.Sessions.Session(r.Context(), id).Cart

	return ht.writeJSON(w, cart.Snapshot())
}

// HandleAddCartItem adds a product to the session's cart.
// Expects a JSON body with productId and quantity.
func (ht *HTTPTransport) HandleAddCartItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleAddCartItem(w, r)
}

func (ht *HTTPTransport) handleAddCartItem(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "add cart item failed", "error", err)
		} else {
			log.DebugContext(ctx, "cart item added")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("cart", "product_id", req.ProductID, "quantity", req.Quantity))

	snapshot, err := ht.shopSvc.AddToCart(r.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("add to cart: %w", err)
	}

	return ht.writeJSON(w, snapshot)
}

// HandleUpdateCartItem sets the quantity of a cart line. A quantity of zero
// or less removes the line.
// Expects a JSON body with quantity.
func (ht *HTTPTransport) HandleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpdateCartItem(w, r)
}

func (ht *HTTPTransport) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "update cart item failed", "error", err)
		} else {
			log.DebugContext(ctx, "cart item updated")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	productID, err := ht.productIDPathValue(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("cart", "product_id", productID, "quantity", req.Quantity))

	cart := ht.shopSvc.Sessions.Session(r.Context(), id).Cart
	cart.UpdateQuantity(r.Context(), productID, req.Quantity)

	return ht.writeJSON(w, cart.Snapshot())
}

// HandleRemoveCartItem removes a product from the session's cart.
func (ht *HTTPTransport) HandleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRemoveCartItem(w, r)
}

func (ht *HTTPTransport) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "remove cart item failed", "error", err)
		} else {
			log.DebugContext(ctx, "cart item removed")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	productID, err := ht.productIDPathValue(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	cart := ht.shopSvc.Sessions.Session(r.Context(), id).Cart
	cart.RemoveItem(r.Context(), productID)

	return ht.writeJSON(w, cart.Snapshot())
}

// HandleClearCart removes every line from the session's cart.
func (ht *HTTPTransport) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleClearCart(w, r)
}

func (ht *HTTPTransport) handleClearCart(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "clear cart failed", "error", err)
		} else {
			log.DebugContext(ctx, "cart cleared")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	cart := ht.shopSvc.Sessions.Session(r.Context(), id).Cart
	cart.Clear(r.Context())

	return ht.writeJSON(w, cart.Snapshot())
}

type setCartOpenRequest struct {
	IsOpen *bool `json:"isOpen"`
}

// HandleSetCartOpen sets or toggles the cart drawer flag. A JSON body with
// isOpen sets the flag; an empty body toggles it. The flag is in-memory only
// and never persisted.
func (ht *HTTPTransport) HandleSetCartOpen(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSetCartOpen(w, r)
}

func (ht *HTTPTransport) handleSetCartOpen(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "set cart open failed", "error", err)
		} else {
			log.DebugContext(ctx, "cart open flag set")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	var req setCartOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	cart := ht.shopSvc.Sessions.Session(r.Context(), id).Cart

	if req.IsOpen != nil {
		cart.SetOpen(*req.IsOpen)
	} else {
		cart.Toggle()
	}

	return ht.writeJSON(w, map[string]bool{"isOpen": cart.IsOpen()})
}

// HandleGetWishlist returns the session's wishlist snapshot.
func (ht *HTTPTransport) HandleGetWishlist(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetWishlist(w, r)
}

func (ht *HTTPTransport) handleGetWishlist(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get wishlist failed", "error", err)
		} else {
			log.DebugContext(ctx, "wishlist fetched")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	wishlist := ht.shopSvc.Sessions.Session(r.Context(), id).Wishlist

	return ht.writeJSON(w, wishlist.Snapshot())
}

// HandleAddWishlistItem adds a product to the session's wishlist. Adding a
// product that is already listed is a no-op.
// Expects a JSON body with productId.
func (ht *HTTPTransport) HandleAddWishlistItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleAddWishlistItem(w, r)
}

func (ht *HTTPTransport) handleAddWishlistItem(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "add wishlist item failed", "error", err)
		} else {
			log.DebugContext(ctx, "wishlist item added")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	var req addWishlistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	snapshot, err := ht.shopSvc.AddToWishlist(r.Context(), id, req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("add to wishlist: %w", err)
	}

	return ht.writeJSON(w, snapshot)
}

// HandleRemoveWishlistItem removes a product from the session's wishlist.
func (ht *HTTPTransport) HandleRemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRemoveWishlistItem(w, r)
}

func (ht *HTTPTransport) handleRemoveWishlistItem(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "remove wishlist item failed", "error", err)
		} else {
			log.DebugContext(ctx, "wishlist item removed")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	productID, err := ht.productIDPathValue(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	wishlist := ht.shopSvc.Sessions.Session(r.Context(), id).Wishlist
	wishlist.RemoveItem(r.Context(), productID)

	return ht.writeJSON(w, wishlist.Snapshot())
}

// HandleClearWishlist removes every entry from the session's wishlist.
func (ht *HTTPTransport) HandleClearWishlist(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleClearWishlist(w, r)
}

func (ht *HTTPTransport) handleClearWishlist(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "clear wishlist failed", "error", err)
		} else {
			log.DebugContext(ctx, "wishlist cleared")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	wishlist := ht.shopSvc.Sessions.Session(r.Context(), id).Wishlist
	wishlist.Clear(r.Context())

	return ht.writeJSON(w, wishlist.Snapshot())
}
