package shopsvc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/repo/catalog"
	"github.com/mkrupp/nextshop/internal/repo/order"
	"github.com/mkrupp/nextshop/internal/repo/user"
	"github.com/mkrupp/nextshop/internal/store"
)

// ErrEmptyCart is returned when checking out a session whose cart holds no items.
var ErrEmptyCart = errors.New("empty cart")

// ShopConfig holds configuration parameters for the shop service.
type ShopConfig struct {
	// SeedFile is the path to a JSON fixture loaded into the catalog at startup.
	// A missing file is skipped.
	SeedFile string `env:"SEED_FILE" default:"var/storage/catalog_seed.json"`

	// ImageDir is the directory holding product image files
	ImageDir string `env:"IMAGE_DIR" default:"var/storage/images"`

	// Interpolator specifies the image scaling algorithm for thumbnails.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`
}

// ShopService ties the catalog, the per-session state stores, and the order
// book together. All storefront operations go through here.
type ShopService struct {
	Config      ShopConfig
	CatalogRepo catalog.Repository
	OrderRepo   order.Repository
	UserRepo    user.Repository
	Sessions    *store.Manager
	Log         logging.Logger
}

// NewShopService creates a new ShopService from the given repository factories
// and configuration. Returns an error if any repository cannot be created.
func NewShopService(
	catalogFactory catalog.RepositoryFactory,
	orderFactory order.RepositoryFactory,
	userFactory user.RepositoryFactory,
	sessions *store.Manager,
	cfg ShopConfig,
) (*ShopService, error) {
	log := logging.GetLogger("svc.shopsvc.shop_service")

	catalogRepo, err := catalogFactory()
	if err != nil {
		return nil, fmt.Errorf("new catalog repo: %w", err)
	}

	orderRepo, err := orderFactory()
	if err != nil {
		return nil, fmt.Errorf("new order repo: %w", err)
	}

	userRepo, err := userFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &ShopService{
		Config:      cfg,
		CatalogRepo: catalogRepo,
		OrderRepo:   orderRepo,
		UserRepo:    userRepo,
		Sessions:    sessions,
		Log:         log,
	}, nil
}

// ListProducts returns catalog products matching the given filters.
func (s *ShopService) ListProducts(
	ctx context.Context,
	filters domain.SearchFilters,
) ([]domain.Product, error) {
	products, err := s.CatalogRepo.ListProducts(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

// GetProduct returns the catalog product with the given slug.
func (s *ShopService) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	product, _, err := s.CatalogRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// ListCategories returns all catalog categories.
func (s *ShopService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.CatalogRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

// GetCategory returns the catalog category with the given slug.
func (s *ShopService) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	category, _, err := s.CatalogRepo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

// AddToCart resolves the product and adds it to the session's cart.
func (s *ShopService) AddToCart(
	ctx context.Context,
	sessionID domain.SessionID,
	productID int64,
	quantity int,
) (domain.CartSnapshot, error) {
	product, _, err := s.CatalogRepo.GetProductByID(ctx, productID)
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("get product: %w", err)
	}

	cart := s.Sessions.Session(ctx, sessionID).Cart
	cart.AddItem(ctx, *product, quantity)

	return cart.Snapshot(), nil
}

// AddToWishlist resolves the product and adds it to the session's wishlist.
func (s *ShopService) AddToWishlist(
	ctx context.Context,
	sessionID domain.SessionID,
	productID int64,
) (domain.WishlistSnapshot, error) {
	product, _, err := s.CatalogRepo.GetProductByID(ctx, productID)
	if err != nil {
		return domain.WishlistSnapshot{}, fmt.Errorf("get product: %w", err)
	}

	wishlist := s.Sessions.Session(ctx, sessionID).Wishlist
	wishlist.AddItem(ctx, *product)

	return wishlist.Snapshot(), nil
}

// Checkout turns the session's cart into an order for the given account and
// clears the cart. Returns ErrEmptyCart if the cart holds no items.
func (s *ShopService) Checkout(
	ctx context.Context,
	sessionID domain.SessionID,
	email string,
	address domain.Address,
) (_ *domain.Order, err error) {
	log := s.Log.With(logging.Group("checkout",
		"session", sessionID.String(),
		"email", email,
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "checkout failed", "error", err)
		} else {
			log.DebugContext(ctx, "checkout complete")
		}
	}()

	account, _, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	cart := s.Sessions.Session(ctx, sessionID).Cart

	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	placed, err := s.OrderRepo.CreateOrder(ctx, account.ID, items, cart.Total(), address)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	cart.Clear(ctx)

	return placed, nil
}

// ListOrders returns the account's orders, newest first.
func (s *ShopService) ListOrders(ctx context.Context, email string) ([]domain.Order, error) {
	account, _, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	orders, err := s.OrderRepo.ListOrdersByUser(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return orders, nil
}

// GetOrder returns one of the account's orders.
func (s *ShopService) GetOrder(ctx context.Context, email string, orderID int64) (*domain.Order, error) {
	account, _, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	placed, err := s.OrderRepo.GetOrder(ctx, account.ID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	return placed, nil
}

// CancelOrder cancels one of the account's pending orders.
func (s *ShopService) CancelOrder(ctx context.Context, email string, orderID int64) error {
	account, _, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.OrderRepo.UpdateOrderStatus(ctx, account.ID, orderID, domain.OrderCancelled); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	return nil
}

// CreateTicket opens a support ticket for the account.
func (s *ShopService) CreateTicket(
	ctx context.Context,
	email, subject, message, priority string,
) (*domain.SupportTicket, error) {
	account, _, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	ticket, err := s.OrderRepo.CreateTicket(ctx, account.ID, subject, message, priority)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	return ticket, nil
}

// ListTickets returns the account's support tickets, newest first.
func (s *ShopService) ListTickets(ctx context.Context, email string) ([]domain.SupportTicket, error) {
	account, _, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	tickets, err := s.OrderRepo.ListTicketsByUser(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	return tickets, nil
}

// ProductImage loads the product's image file, scaled down to the given width
// when width is positive. Returns the image bytes and their MIME type.
func (s *ShopService) ProductImage(
	ctx context.Context,
	slug string,
	width int,
) ([]byte, string, error) {
	product, _, err := s.CatalogRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, "", fmt.Errorf("get product: %w", err)
	}

	if product.Image == "" {
		return nil, "", fmt.Errorf("product image: %w", os.ErrNotExist)
	}

	filename := filepath.Base(product.Image) // Never escape the image dir

	mimeType, err := imageTypeByExt(filepath.Ext(filename))
	if err != nil {
		return nil, "", fmt.Errorf("image type: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Config.ImageDir, filename))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}

	if width > 0 {
		data, err = resizeImage(data, mimeType, width, s.Config.Interpolator)
		if err != nil {
			return nil, "", fmt.Errorf("resize image: %w", err)
		}
	}

	return data, mimeType, nil
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *ShopService) Close() error {
	return errors.Join(
		s.CatalogRepo.Close(),
		s.OrderRepo.Close(),
		s.UserRepo.Close(),
		s.Sessions.Close(),
	)
}
