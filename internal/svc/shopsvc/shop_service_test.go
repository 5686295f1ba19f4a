package shopsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"
	"github.com/mkrupp/nextshop/internal/store"
	"github.com/mkrupp/nextshop/internal/svc/shopsvc"
)

// mockCatalogRepository implements catalog.Repository for testing.
type mockCatalogRepository struct {
	products   map[int64]domain.Product
	categories []domain.Category
	err        error
}

func (m *mockCatalogRepository) ListProducts(_ context.Context, _ domain.SearchFilters) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}

	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}

	return products, nil
}

func (m *mockCatalogRepository) GetProductBySlug(_ context.Context, slug string) (*domain.Product, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			return &p, true, nil
		}
	}
	return nil, false, domain.ErrProductNotFound
}

func (m *mockCatalogRepository) GetProductByID(_ context.Context, id int64) (*domain.Product, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, false, domain.ErrProductNotFound
	}
	return &p, true, nil
}

func (m *mockCatalogRepository) ListCategories(_ context.Context) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCatalogRepository) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, bool, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return &c, true, nil
		}
	}
	return nil, false, domain.ErrCategoryNotFound
}

func (m *mockCatalogRepository) Seed(_ context.Context, _ []domain.Category, _ []domain.Product) error {
	return m.err
}

func (m *mockCatalogRepository) Close() error { return nil }

// mockOrderRepository implements order.Repository for testing.
type mockOrderRepository struct {
	orders  []domain.Order
	tickets []domain.SupportTicket
	err     error
	m       sync.Mutex
}

func (m *mockOrderRepository) CreateOrder(
	_ context.Context,
	userID int64,
	items []domain.CartItem,
	total float64,
	address domain.Address,
) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	placed := domain.Order{
		ID:              int64(len(m.orders) + 1),
		UserID:          userID,
		Status:          domain.OrderPending,
		Total:           total,
		Items:           items,
		CreatedAt:       time.Now().Unix(),
		ShippingAddress: address,
	}
	m.orders = append(m.orders, placed)

	return &placed, nil
}

func (m *mockOrderRepository) ListOrdersByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()

	var orders []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, m.err
}

func (m *mockOrderRepository) GetOrder(_ context.Context, userID, orderID int64) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()

	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderRepository) UpdateOrderStatus(_ context.Context, userID, orderID int64, status string) error {
	m.m.Lock()
	defer m.m.Unlock()

	for i, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			m.orders[i].Status = status
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (m *mockOrderRepository) CreateTicket(
	_ context.Context,
	userID int64,
	subject, message, priority string,
) (*domain.SupportTicket, error) {
	m.m.Lock()
	defer m.m.Unlock()

	ticket := domain.SupportTicket{
		ID:       int64(len(m.tickets) + 1),
		UserID:   userID,
		Subject:  subject,
		Message:  message,
		Status:   domain.TicketOpen,
		Priority: priority,
	}
	m.tickets = append(m.tickets, ticket)

	return &ticket, nil
}

func (m *mockOrderRepository) ListTicketsByUser(_ context.Context, userID int64) ([]domain.SupportTicket, error) {
	m.m.Lock()
	defer m.m.Unlock()

	var tickets []domain.SupportTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (m *mockOrderRepository) Close() error { return nil }

// mockShopUserRepository implements user.Repository for testing.
type mockShopUserRepository struct {
	users map[string]*domain.User
}

func (m *mockShopUserRepository) CreateUser(_ context.Context, email, name string, hash []byte) error {
	m.users[email] = &domain.User{ID: int64(len(m.users) + 1), Email: email, Name: name, PasswordHash: hash}
	return nil
}

func (m *mockShopUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, false, domain.ErrUserNotFound
	}
	return u, true, nil
}

func (m *mockShopUserRepository) UpdateUser(_ context.Context, email, name, avatar string) (*domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Name = name
	u.Avatar = avatar
	return u, nil
}

func (m *mockShopUserRepository) Close() error { return nil }

func setupTestService(t *testing.T) (*shopsvc.ShopService, *mockOrderRepository) {
	t.Helper()

	sessions, err := store.NewManager(snapshot.MemorySnapshotRepositoryFactory())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	catalogRepo := &mockCatalogRepository{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "Desk Lamp", Slug: "desk-lamp", Price: 29.99},
			2: {ID: 2, Name: "Monitor", Slug: "monitor", Price: 199.0},
		},
		categories: []domain.Category{{ID: 1, Name: "Home", Slug: "home"}},
	}

	orderRepo := &mockOrderRepository{}

	userRepo := &mockShopUserRepository{
		users: map[string]*domain.User{
			"test@example.com": {ID: 1, Email: "test@example.com", Name: "Test User"},
		},
	}

	return &shopsvc.ShopService{
		Config:      shopsvc.ShopConfig{Interpolator: "catmullrom"},
		CatalogRepo: catalogRepo,
		OrderRepo:   orderRepo,
		UserRepo:    userRepo,
		Sessions:    sessions,
		Log:         logging.GetLogger("test.shopsvc"),
	}, orderRepo
}

func TestShopService_AddToCart(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	snapshot, err := svc.AddToCart(context.Background(), "s1", 1, 2)
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	if len(snapshot.Items) != 1 || snapshot.Items[0].Quantity != 2 {
		t.Errorf("snapshot items = %v, want one line with quantity 2", snapshot.Items)
	}

	if snapshot.Total != 59.98 {
		t.Errorf("snapshot total = %v, want 59.98", snapshot.Total)
	}

	if _, err := svc.AddToCart(context.Background(), "s1", 99, 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("AddToCart() error = %v, want ErrProductNotFound", err)
	}
}

func TestShopService_Checkout(t *testing.T) {
	t.Parallel()

	svc, orderRepo := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.AddToCart(ctx, "s1", 1, 2); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if _, err := svc.AddToCart(ctx, "s1", 2, 1); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	address := domain.Address{Street: "1 Main St", City: "Berlin", Country: "DE"}

	placed, err := svc.Checkout(ctx, "s1", "test@example.com", address)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if placed.Total != 258.98 {
		t.Errorf("order total = %v, want 258.98", placed.Total)
	}

	if len(placed.Items) != 2 {
		t.Errorf("order items = %d, want 2", len(placed.Items))
	}

	if placed.Status != domain.OrderPending {
		t.Errorf("order status = %q, want %q", placed.Status, domain.OrderPending)
	}

	// Checkout drains the cart
	cart := svc.Sessions.Session(ctx, "s1").Cart
	if cart.Count() != 0 {
		t.Errorf("cart count after checkout = %d, want 0", cart.Count())
	}

	if len(orderRepo.orders) != 1 {
		t.Errorf("stored orders = %d, want 1", len(orderRepo.orders))
	}
}

func TestShopService_CheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	_, err := svc.Checkout(context.Background(), "s1", "test@example.com", domain.Address{})
	if !errors.Is(err, shopsvc.ErrEmptyCart) {
		t.Errorf("Checkout() error = %v, want ErrEmptyCart", err)
	}
}

func TestShopService_CheckoutUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.AddToCart(ctx, "s1", 1, 1); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	_, err := svc.Checkout(ctx, "s1", "nobody@example.com", domain.Address{})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("Checkout() error = %v, want ErrUserNotFound", err)
	}

	// Cart survives a failed checkout
	if count := svc.Sessions.Session(ctx, "s1").Cart.Count(); count != 1 {
		t.Errorf("cart count = %d, want 1", count)
	}
}

func TestShopService_OrdersAreAccountScoped(t *testing.T) {
	t.Parallel()

	svc, orderRepo := setupTestService(t)
	ctx := context.Background()

	orderRepo.orders = []domain.Order{
		{ID: 1, UserID: 1, Status: domain.OrderDelivered},
		{ID: 2, UserID: 2, Status: domain.OrderPending},
	}

	orders, err := svc.ListOrders(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}

	if len(orders) != 1 || orders[0].ID != 1 {
		t.Errorf("orders = %v, want only order 1", orders)
	}

	if _, err := svc.GetOrder(ctx, "test@example.com", 2); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("GetOrder() error = %v, want ErrOrderNotFound for foreign order", err)
	}
}

func TestShopService_CancelOrder(t *testing.T) {
	t.Parallel()

	svc, orderRepo := setupTestService(t)
	ctx := context.Background()

	orderRepo.orders = []domain.Order{{ID: 1, UserID: 1, Status: domain.OrderPending}}

	if err := svc.CancelOrder(ctx, "test@example.com", 1); err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}

	if orderRepo.orders[0].Status != domain.OrderCancelled {
		t.Errorf("order status = %q, want %q", orderRepo.orders[0].Status, domain.OrderCancelled)
	}
}

func TestShopService_Tickets(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, "test@example.com", "Broken lamp", "It flickers.", domain.PriorityHigh)
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	if ticket.Status != domain.TicketOpen {
		t.Errorf("ticket status = %q, want %q", ticket.Status, domain.TicketOpen)
	}

	tickets, err := svc.ListTickets(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("ListTickets() error = %v", err)
	}

	if len(tickets) != 1 || tickets[0].Subject != "Broken lamp" {
		t.Errorf("tickets = %v, want the created ticket", tickets)
	}
}
