package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	ErrNotFound     = errors.New("customer not found")
	ErrInvalidEmail = errors.New("email is empty")
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"4"`
}

// NewDB opens a bun-wrapped Postgres connection.
func NewDB(cfg Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	)
	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Repo reads customer profiles and appends retention events.
type Repo struct {
	db bun.IDB
}

func NewRepo(db bun.IDB) *Repo {
	return &Repo{db: db}
}

// LookupByEmail matches case-insensitively and returns ErrNotFound when no
// row matches.
func (r *Repo) LookupByEmail(ctx context.Context, email string) (*Customer, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, ErrInvalidEmail
	}

	var c Customer
	err := r.db.NewSelect().
		Model(&c).
		Where("lower(email) = lower(?)", trimmed).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, trimmed)
		}
		return nil, fmt.Errorf("lookup customer by email: %w", err)
	}
	return &c, nil
}

func (r *Repo) RecordEvent(ctx context.Context, ev *RetentionEvent) error {
	if ev == nil {
		return errors.New("nil retention event")
	}
	if strings.TrimSpace(ev.CustomerID) == "" {
		return errors.New("retention event requires customer_id")
	}
	if strings.TrimSpace(ev.Action) == "" {
		return errors.New("retention event requires action")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.NewInsert().Model(ev).Exec(ctx); err != nil {
		return fmt.Errorf("insert retention event: %w", err)
	}
	return nil
}

// EventsForCustomer returns recorded outcomes, newest first.
func (r *Repo) EventsForCustomer(ctx context.Context, customerID string, limit int) ([]RetentionEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []RetentionEvent
	err := r.db.NewSelect().
		Model(&events).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select retention events: %w", err)
	}
	return events, nil
}

// ResetSchema drops and recreates both tables. Used by cmd/seed only.
func (r *Repo) ResetSchema(ctx context.Context) error {
	models := []any{(*Customer)(nil), (*RetentionEvent)(nil)}
	for _, m := range models {
		if _, err := r.db.NewDropTable().Model(m).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
		if _, err := r.db.NewCreateTable().Model(m).Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (r *Repo) InsertCustomers(ctx context.Context, customers []Customer) error {
	if len(customers) == 0 {
		return nil
	}
	if _, err := r.db.NewInsert().Model(&customers).Exec(ctx); err != nil {
		return fmt.Errorf("insert customers: %w", err)
	}
	return nil
}
