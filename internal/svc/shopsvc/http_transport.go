package shopsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/mkrupp/nextshop/internal/domain"
	context_ "github.com/mkrupp/nextshop/internal/infra/context"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	http_ "github.com/mkrupp/nextshop/internal/infra/transport/http"
	"github.com/mkrupp/nextshop/internal/svc/authsvc/authclient"
)

var (
	// ErrNoSessionID is returned when a request carries no browsing session ID.
	ErrNoSessionID = errors.New("no session id")
	// ErrNoProductID is returned when the product ID is missing from the request.
	ErrNoProductID = errors.New("no product id")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// URLSlugParam is the URL parameter name for product and category slugs.
	// Default is "slug".
	URLSlugParam string `env:"URL_SLUG_PARAM" default:"slug"`

	// URLProductIDParam is the URL parameter name for product IDs.
	// Default is "product_id".
	URLProductIDParam string `env:"URL_PRODUCT_ID_PARAM" default:"product_id"`

	// URLOrderIDParam is the URL parameter name for order IDs.
	// Default is "order_id".
	URLOrderIDParam string `env:"URL_ORDER_ID_PARAM" default:"order_id"`

	// URLWidthParam is the URL parameter for specifying thumbnail width.
	// Default is "width".
	URLWidthParam string `env:"URL_WIDTH_PARAM" default:"width"`
}

// HTTPTransport handles HTTP requests for the shop service.
// It provides the catalog, the per-session cart and wishlist, and the
// order and support endpoints.
type HTTPTransport struct {
	shopSvc    *ShopService
	authClient authclient.AuthClient
	log        logging.Logger
	cfg        HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires a ShopService for handling business logic and an AuthClient for
// protecting the account-scoped endpoints.
func NewHTTPTransport(
	shopSvc *ShopService,
	authClient authclient.AuthClient,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	return &HTTPTransport{
		shopSvc:    shopSvc,
		authClient: authClient,
		log:        logging.GetLogger("svc.shopsvc.http_transport"),
		cfg:        cfg,
	}
}

// ServeHTTP implements http.Handler and sets up the shop service routes.
// Catalog, cart, wishlist, and session routes only need a browsing session;
// order and support routes additionally require a valid auth token.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", ht.HandleListProducts)
	mux.HandleFunc("GET /products/search", ht.HandleListProducts)
	mux.HandleFunc(fmt.Sprintf("GET /products/{%s}", ht.cfg.URLSlugParam), ht.HandleGetProduct)
	mux.HandleFunc(fmt.Sprintf("GET /products/{%s}/image", ht.cfg.URLSlugParam), ht.HandleProductImage)
	mux.HandleFunc("GET /categories", ht.HandleListCategories)
	mux.HandleFunc(fmt.Sprintf("GET /categories/{%s}", ht.cfg.URLSlugParam), ht.HandleGetCategory)
	mux.HandleFunc(
		fmt.Sprintf("GET /categories/{%s}/products", ht.cfg.URLSlugParam),
		ht.HandleListCategoryProducts,
	)

	mux.HandleFunc("GET /cart", ht.HandleGetCart)
	mux.HandleFunc("POST /cart/items", ht.HandleAddCartItem)
	mux.HandleFunc(fmt.Sprintf("PUT /cart/items/{%s}", ht.cfg.URLProductIDParam), ht.HandleUpdateCartItem)
	mux.HandleFunc(fmt.Sprintf("DELETE /cart/items/{%s}", ht.cfg.URLProductIDParam), ht.HandleRemoveCartItem)
	mux.HandleFunc("DELETE /cart", ht.HandleClearCart)
	mux.HandleFunc("POST /cart/open", ht.HandleSetCartOpen)

	mux.HandleFunc("GET /wishlist", ht.HandleGetWishlist)
	mux.HandleFunc("POST /wishlist", ht.HandleAddWishlistItem)
	mux.HandleFunc(
		fmt.Sprintf("DELETE /wishlist/{%s}", ht.cfg.URLProductIDParam),
		ht.HandleRemoveWishlistItem,
	)
	mux.HandleFunc("DELETE /wishlist", ht.HandleClearWishlist)

	mux.HandleFunc("GET /session", ht.HandleGetSession)
	mux.HandleFunc("DELETE /session", ht.HandleDropSession)
	mux.HandleFunc("POST /session/login", ht.HandleSessionLogin)
	mux.HandleFunc("POST /session/logout", ht.HandleSessionLogout)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /orders", ht.HandleCheckout)
	protected.HandleFunc("GET /orders", ht.HandleListOrders)
	protected.HandleFunc(fmt.Sprintf("GET /orders/{%s}", ht.cfg.URLOrderIDParam), ht.HandleGetOrder)
	protected.HandleFunc(
		fmt.Sprintf("POST /orders/{%s}/cancel", ht.cfg.URLOrderIDParam),
		ht.HandleCancelOrder,
	)
	protected.HandleFunc("POST /support/tickets", ht.HandleCreateTicket)
	protected.HandleFunc("GET /support/tickets", ht.HandleListTickets)

	mux.Handle("/orders", http_.AuthorizingMiddleware(protected, ht.authClient, ht.log))
	mux.Handle("/orders/", http_.AuthorizingMiddleware(protected, ht.authClient, ht.log))
	mux.Handle("/support/", http_.AuthorizingMiddleware(protected, ht.authClient, ht.log))

	http_.SessionMiddleware(mux).ServeHTTP(w, r)
}

// sessionID resolves the browsing session ID attached by SessionMiddleware.
func sessionID(r *http.Request) (domain.SessionID, error) {
	id, ok := context_.SessionIDFromContext(r.Context())
	if !ok || id == "" {
		return "", ErrNoSessionID
	}

	return domain.SessionID(id), nil
}

// userEmail resolves the account email attached by AuthorizingMiddleware.
func userEmail(r *http.Request) (string, error) {
	email, ok := context_.UserEmailFromContext(r.Context())
	if !ok || email == "" {
		return "", domain.ErrUnauthorized
	}

	return email, nil
}

func searchFiltersFromQuery(r *http.Request) (domain.SearchFilters, error) {
	query := r.URL.Query()

	filters := domain.SearchFilters{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		Brand:    query.Get("brand"),
		SortBy:   query.Get("sort"),
	}

	for param, target := range map[string]*float64{
		"min_price": &filters.MinPrice,
		"max_price": &filters.MaxPrice,
		"rating":    &filters.Rating,
	} {
		if raw := query.Get(param); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return domain.SearchFilters{}, fmt.Errorf("parse %s: %w", param, err)
			}

			*target = value
		}
	}

	return filters, nil
}

func (ht *HTTPTransport) writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

func (ht *HTTPTransport) requestLog(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

// HandleListProducts returns the catalog, filtered and sorted by query
// parameters: q, category, brand, min_price, max_price, rating, sort.
func (ht *HTTPTransport) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleListProducts(w, r)
}

func (ht *HTTPTransport) handleListProducts(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "list products failed", "error", err)
		} else {
			log.DebugContext(ctx, "products listed")
		}
	}(r.Context())

	filters, err := searchFiltersFromQuery(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse filters: %w", err)
	}

	products, err := ht.shopSvc.ListProducts(r.Context(), filters)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("list products: %w", err)
	}

	return ht.writeJSON(w, products)
}

// HandleGetProduct returns a single product by slug.
func (ht *HTTPTransport) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetProduct(w, r)
}

func (ht *HTTPTransport) handleGetProduct(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get product failed", "error", err)
		} else {
			log.DebugContext(ctx, "product fetched")
		}
	}(r.Context())

	slug := r.PathValue(ht.cfg.URLSlugParam)

	product, err := ht.shopSvc.GetProduct(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get product: %w", err)
	}

	return ht.writeJSON(w, product)
}

// HandleProductImage serves a product's image, scaled down to the width
// query parameter when given.
func (ht *HTTPTransport) HandleProductImage(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleProductImage(w, r)
}

func (ht *HTTPTransport) handleProductImage(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "product image failed", "error", err)
		} else {
			log.DebugContext(ctx, "product image served")
		}
	}(r.Context())

	slug := r.PathValue(ht.cfg.URLSlugParam)

	var width int

	if widthStr := r.URL.Query().Get(ht.cfg.URLWidthParam); widthStr != "" {
		width_, err := strconv.ParseInt(widthStr, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

			return fmt.Errorf("parse width: %w", err)
		}

		width = int(width_)
	}

	data, mimeType, err := ht.shopSvc.ProductImage(r.Context(), slug, width)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			fallthrough
		case errors.Is(err, os.ErrNotExist):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, ErrUnsupportedImageType):
			http.Error(w, http.StatusText(http.StatusUnsupportedMediaType), http.StatusUnsupportedMediaType)
		default:
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("product image: %w", err)
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// HandleListCategoryProducts returns the products of one category, honoring
// the same filter and sort query parameters as the product listing.
func (ht *HTTPTransport) HandleListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleListCategoryProducts(w, r)
}

func (ht *HTTPTransport) handleListCategoryProducts(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "list category products failed", "error", err)
		} else {
			log.DebugContext(ctx, "category products listed")
		}
	}(r.Context())

	slug := r.PathValue(ht.cfg.URLSlugParam)

	// A listing for an unknown category is a 404, not an empty list
	if _, err := ht.shopSvc.GetCategory(r.Context(), slug); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get category: %w", err)
	}

	filters, err := searchFiltersFromQuery(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse filters: %w", err)
	}

	filters.Category = slug

	products, err := ht.shopSvc.ListProducts(r.Context(), filters)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("list products: %w", err)
	}

	return ht.writeJSON(w, products)
}

// HandleListCategories returns all categories with product counts.
func (ht *HTTPTransport) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleListCategories(w, r)
}

func (ht *HTTPTransport) handleListCategories(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "list categories failed", "error", err)
		} else {
			log.DebugContext(ctx, "categories listed")
		}
	}(r.Context())

	categories, err := ht.shopSvc.ListCategories(r.Context())
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("list categories: %w", err)
	}

	return ht.writeJSON(w, categories)
}

// HandleGetCategory returns a single category by slug.
func (ht *HTTPTransport) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetCategory(w, r)
}

func (ht *HTTPTransport) handleGetCategory(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get category failed", "error", err)
		} else {
			log.DebugContext(ctx, "category fetched")
		}
	}(r.Context())

	category, err := ht.shopSvc.GetCategory(r.Context(), r.PathValue(ht.cfg.URLSlugParam))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get category: %w", err)
	}

	return ht.writeJSON(w, category)
}
