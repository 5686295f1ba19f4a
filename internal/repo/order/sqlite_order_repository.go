package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // database driver

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

// SQLiteOrderRepositoryConfig holds configuration for the SQLite order repository.
type SQLiteOrderRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/orders.db"`
}

// SQLiteOrderRepository implements Repository using SQLite as the storage backend.
// Order lines and ticket responses are stored as JSON columns; they are only
// ever read and written as a whole.
type SQLiteOrderRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteOrderRepository)(nil)

// SQLiteOrderRepositoryFactory creates a factory function that returns a new
// SQLiteOrderRepository. The factory function implements the RepositoryFactory type.
func SQLiteOrderRepositoryFactory(cfg SQLiteOrderRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteOrderRepository(cfg)
	}
}

// NewSQLiteOrderRepository creates a new SQLiteOrderRepository with the given
// configuration. It initializes the database connection and creates the schema
// if needed. Returns an error if database connection or initialization fails.
func NewSQLiteOrderRepository(cfg SQLiteOrderRepositoryConfig) (*SQLiteOrderRepository, error) {
	log := logging.GetLogger("repo.order.sqlite_order_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	repo := NewSQLiteOrderRepositoryWithDB(db, log)

	if err := repo.initializeDB(); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	return repo, nil
}

// NewSQLiteOrderRepositoryWithDB wraps an existing database handle.
// The schema is not created; used by tests that bring their own handle.
func NewSQLiteOrderRepositoryWithDB(db *sql.DB, log logging.Logger) *SQLiteOrderRepository {
	return &SQLiteOrderRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}
}

func (r *SQLiteOrderRepository) initializeDB() error {
	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			status     TEXT    NOT NULL,
			total      REAL    NOT NULL,
			items      TEXT    NOT NULL,
			address    TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id);

		CREATE TABLE IF NOT EXISTS tickets (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			subject    TEXT    NOT NULL,
			message    TEXT    NOT NULL,
			status     TEXT    NOT NULL,
			priority   TEXT    NOT NULL,
			responses  TEXT    NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets (user_id);
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// CreateOrder implements Repository.CreateOrder using SQLite.
func (r *SQLiteOrderRepository) CreateOrder(
	ctx context.Context,
	userID int64,
	items []domain.CartItem,
	total float64,
	address domain.Address,
) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	addressJSON, err := json.Marshal(address)
	if err != nil {
		return nil, fmt.Errorf("marshal address: %w", err)
	}

	now := time.Now().Unix()

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO orders (user_id, status, total, items, address, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		userID,
		domain.OrderPending,
		total,
		itemsJSON,
		addressJSON,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("order id: %w", err)
	}

	r.log.DebugContext(ctx, "order created",
		logging.Group("order", "id", id, "items", len(items), "total", total),
	)

	return &domain.Order{
		ID:              id,
		UserID:          userID,
		Status:          domain.OrderPending,
		Total:           total,
		Items:           items,
		CreatedAt:       now,
		ShippingAddress: address,
	}, nil
}

// ListOrdersByUser implements Repository.ListOrdersByUser using SQLite.
func (r *SQLiteOrderRepository) ListOrdersByUser(
	ctx context.Context,
	userID int64,
) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, status, total, items, address, created_at "+
			"FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// GetOrder implements Repository.GetOrder using SQLite.
func (r *SQLiteOrderRepository) GetOrder(
	ctx context.Context,
	userID, orderID int64,
) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, status, total, items, address, created_at "+
			"FROM orders WHERE id = ? AND user_id = ?",
		orderID,
		userID,
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrOrderNotFound, err)
		}

		return nil, fmt.Errorf("query order: %w", err)
	}

	return &order, nil
}

// UpdateOrderStatus implements Repository.UpdateOrderStatus using SQLite.
func (r *SQLiteOrderRepository) UpdateOrderStatus(
	ctx context.Context,
	userID, orderID int64,
	status string,
) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ? AND user_id = ?",
		status,
		orderID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update order: %w", domain.ErrOrderNotFound)
	}

	return nil
}

// CreateTicket implements Repository.CreateTicket using SQLite.
func (r *SQLiteOrderRepository) CreateTicket(
	ctx context.Context,
	userID int64,
	subject, message, priority string,
) (*domain.SupportTicket, error) {
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now().Unix()

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tickets (user_id, subject, message, status, priority, created_at, updated_at) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?)",
		userID,
		subject,
		message,
		domain.TicketOpen,
		priority,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("ticket id: %w", err)
	}

	return &domain.SupportTicket{
		ID:        id,
		UserID:    userID,
		Subject:   subject,
		Message:   message,
		Status:    domain.TicketOpen,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ListTicketsByUser implements Repository.ListTicketsByUser using SQLite.
func (r *SQLiteOrderRepository) ListTicketsByUser(
	ctx context.Context,
	userID int64,
) ([]domain.SupportTicket, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, subject, message, status, priority, responses, created_at, updated_at "+
			"FROM tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	tickets := []domain.SupportTicket{}

	for rows.Next() {
		var (
			ticket    domain.SupportTicket
			responses string
		)

		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.Subject,
			&ticket.Message,
			&ticket.Status,
			&ticket.Priority,
			&responses,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}

		if err := json.Unmarshal([]byte(responses), &ticket.Responses); err != nil {
			return nil, fmt.Errorf("unmarshal responses: %w", err)
		}

		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	return tickets, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteOrderRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func scanOrder(row interface{ Scan(dest ...any) error }) (domain.Order, error) {
	var (
		order   domain.Order
		items   string
		address string
	)

	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Total,
		&items,
		&address,
		&order.CreatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}

	if err := json.Unmarshal([]byte(address), &order.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal address: %w", err)
	}

	return order, nil
}
