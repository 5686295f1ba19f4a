package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"

	. "github.com/mkrupp/nextshop/internal/repo/order"
)

func setupRepo(t *testing.T) (*SQLiteOrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLiteOrderRepositoryWithDB(db, logging.NewNopLogger())

	return repo, mock
}

func orderItems() []domain.CartItem {
	return []domain.CartItem{{
		ID:       1,
		Product:  domain.Product{ID: 1, Name: "Desk Lamp", Price: 29.99},
		Quantity: 2,
	}}
}

func TestSQLiteOrderRepository_CreateOrder(t *testing.T) {
	t.Parallel()

	repo, mock := setupRepo(t)

	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(7, 1))

	address := domain.Address{Street: "1 Main St", City: "Berlin", Country: "DE"}

	order, err := repo.CreateOrder(context.TODO(), 42, orderItems(), 59.98, address)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if order.ID != 7 {
		t.Errorf("order ID = %d, want 7", order.ID)
	}

	if order.Status != domain.OrderPending {
		t.Errorf("order status = %q, want %q", order.Status, domain.OrderPending)
	}

	if order.CreatedAt == 0 {
		t.Error("order CreatedAt not set")
	}

	if order.ShippingAddress != address {
		t.Errorf("shipping address = %v, want %v", order.ShippingAddress, address)
	}
}

func TestSQLiteOrderRepository_GetOrder(t *testing.T) {
	t.Parallel()

	repo, mock := setupRepo(t)

	items, _ := json.Marshal(orderItems())
	address, _ := json.Marshal(domain.Address{City: "Berlin"})

	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "total", "items", "address", "created_at"}).
		AddRow(7, 42, domain.OrderShipped, 59.98, string(items), string(address), 1700000000)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\? AND user_id = \\?").
		WithArgs(int64(7), int64(42)).
		WillReturnRows(rows)

	order, err := repo.GetOrder(context.TODO(), 42, 7)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}

	if order.Status != domain.OrderShipped {
		t.Errorf("order status = %q, want %q", order.Status, domain.OrderShipped)
	}

	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Errorf("order items = %v, want restored cart line", order.Items)
	}

	if order.ShippingAddress.City != "Berlin" {
		t.Errorf("shipping city = %q, want Berlin", order.ShippingAddress.City)
	}
}

func TestSQLiteOrderRepository_GetOrderWrongUser(t *testing.T) {
	t.Parallel()

	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\? AND user_id = \\?").
		WithArgs(int64(7), int64(99)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "status", "total", "items", "address", "created_at"},
		))

	_, err := repo.GetOrder(context.TODO(), 99, 7)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
}

func TestSQLiteOrderRepository_UpdateOrderStatus(t *testing.T) {
	t.Parallel()

	repo, mock := setupRepo(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderCancelled, int64(7), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateOrderStatus(context.TODO(), 42, 7, domain.OrderCancelled); err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderCancelled, int64(8), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateOrderStatus(context.TODO(), 42, 8, domain.OrderCancelled)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
}

func TestSQLiteOrderRepository_CreateTicket(t *testing.T) {
	t.Parallel()

	repo, mock := setupRepo(t)

	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(3, 1))

	ticket, err := repo.CreateTicket(context.TODO(), 42, "Broken lamp", "It flickers.", "")
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	if ticket.ID != 3 {
		t.Errorf("ticket ID = %d, want 3", ticket.ID)
	}

	if ticket.Status != domain.TicketOpen {
		t.Errorf("ticket status = %q, want %q", ticket.Status, domain.TicketOpen)
	}

	// Priority defaults when the caller leaves it empty
	if ticket.Priority != domain.PriorityMedium {
		t.Errorf("ticket priority = %q, want %q", ticket.Priority, domain.PriorityMedium)
	}
}

func TestSQLiteOrderRepository_ListTicketsByUser(t *testing.T) {
	t.Parallel()

	repo, mock := setupRepo(t)

	responses, _ := json.Marshal([]domain.TicketResponse{
		{ID: 1, Message: "Looking into it.", IsStaff: true, CreatedAt: 1700000100},
	})

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "subject", "message", "status", "priority",
		"responses", "created_at", "updated_at",
	}).AddRow(3, 42, "Broken lamp", "It flickers.", domain.TicketInProgress,
		domain.PriorityHigh, string(responses), 1700000000, 1700000100)

	mock.ExpectQuery("SELECT (.+) FROM tickets WHERE user_id = \\?").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	tickets, err := repo.ListTicketsByUser(context.TODO(), 42)
	if err != nil {
		t.Fatalf("ListTicketsByUser() error = %v", err)
	}

	if len(tickets) != 1 {
		t.Fatalf("got %d tickets, want 1", len(tickets))
	}

	if len(tickets[0].Responses) != 1 || !tickets[0].Responses[0].IsStaff {
		t.Errorf("responses = %v, want single staff reply", tickets[0].Responses)
	}
}
