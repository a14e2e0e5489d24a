// Package pgstore is the PostgreSQL ledger backend.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/viewsbot/core/logger"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

// Migrations holds the schema, applied through database.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// updateLockKey serialises every Update through a transaction-scoped advisory lock.
const updateLockKey int64 = 0x76696577 // "view"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{
	"user_id", "username", "first_name", "balance", "ads_watched", "referral_code",
	"referred_by", "referrals_count", "join_date", "last_activity",
}

var orderColumns = []string{
	"order_id", "user_id", "video_link", "quantity", "total_cost", "status", "created_at",
}

// Store implements ledger.Backend on a sqlx pool.
type Store struct {
	db *sqlx.DB
}

var _ ledger.Backend = (*Store)(nil)

// New wraps an open pool. Schema is expected to be migrated already.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Update runs fn in a read-write transaction holding the ledger lock.
func (s *Store) Update(ctx context.Context, fn func(ledger.Tx) error) error {
	return s.transaction(ctx, false, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", updateLockKey); err != nil {
			return fmt.Errorf("acquire ledger lock: %w", err)
		}
		return fn(&pgTx{tx: tx})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	return s.transaction(ctx, true, func(tx *sqlx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) transaction(ctx context.Context, readOnly bool, fn func(tx *sqlx.Tx) error) error {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	if logger.ShouldSampleDebug() {
		logger.DB.Debug("tx committed",
			slog.String("event", "db.tx"),
			slog.Bool("read_only", readOnly),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) getUser(ctx context.Context, where sq.Eq) (ledger.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return ledger.User{}, fmt.Errorf("build user query: %w", err)
	}
	var u ledger.User
	if err := t.tx.GetContext(ctx, &u, query, args...); err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

func (t *pgTx) User(ctx context.Context, id int64) (ledger.User, error) {
	u, err := t.getUser(ctx, sq.Eq{"user_id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, ledger.ErrUserNotFound
	}
	return u, err
}

func (t *pgTx) UserByReferralCode(ctx context.Context, code string) (ledger.User, error) {
	if code == "" {
		return ledger.User{}, ledger.ErrReferralCodeUnknown
	}
	u, err := t.getUser(ctx, sq.Eq{"referral_code": code})
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, ledger.ErrReferralCodeUnknown
	}
	return u, err
}

func (t *pgTx) exists(ctx context.Context, table string, where sq.Eq) (bool, error) {
	query, args, err := psql.Select("1").From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}
	var one int
	err = t.tx.GetContext(ctx, &one, query, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (t *pgTx) ReferralCodeTaken(ctx context.Context, code string) (bool, error) {
	return t.exists(ctx, "users", sq.Eq{"referral_code": code})
}

func (t *pgTx) OrderIDTaken(ctx context.Context, id string) (bool, error) {
	return t.exists(ctx, "orders", sq.Eq{"order_id": id})
}

func userValues(u ledger.User) map[string]interface{} {
	return map[string]interface{}{
		"user_id":         u.ID,
		"username":        u.Username,
		"first_name":      u.FirstName,
		"balance":         u.Balance,
		"ads_watched":     u.AdsWatched,
		"referral_code":   u.ReferralCode,
		"referred_by":     u.ReferredBy,
		"referrals_count": u.ReferralsCount,
		"join_date":       u.JoinedAt,
		"last_activity":   u.LastActivityAt,
	}
}

func (t *pgTx) InsertUser(ctx context.Context, u ledger.User) error {
	query, args, err := psql.Insert("users").SetMap(userValues(u)).ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateUser(ctx context.Context, u ledger.User) error {
	values := userValues(u)
	delete(values, "user_id")
	query, args, err := psql.Update("users").SetMap(values).Where(sq.Eq{"user_id": u.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrUserNotFound
	}
	return nil
}

func (t *pgTx) AppendReferral(ctx context.Context, r ledger.Referral) error {
	query, args, err := psql.Insert("referrals").
		Columns("referrer_id", "user_id", "reward", "created_at").
		Values(r.ReferrerID, r.UserID, r.Reward, r.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build referral insert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

func (t *pgTx) AppendOrder(ctx context.Context, o ledger.Order) error {
	query, args, err := psql.Insert("orders").
		Columns(orderColumns...).
		Values(o.ID, o.UserID, o.VideoLink, o.Quantity, o.TotalCost, string(o.Status), o.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build order insert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *pgTx) Orders(ctx context.Context, userID int64) ([]ledger.Order, error) {
	query, args, err := psql.Select(orderColumns...).From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}
	var out []ledger.Order
	if err := t.tx.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return out, nil
}

func (t *pgTx) Users(ctx context.Context) ([]ledger.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").OrderBy("user_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}
	var out []ledger.User
	if err := t.tx.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return out, nil
}

func (t *pgTx) Stats(ctx context.Context) (ledger.Stats, error) {
	const query = `SELECT
		(SELECT count(*) FROM users)     AS total_users,
		(SELECT count(*) FROM orders)    AS total_orders,
		(SELECT count(*) FROM referrals) AS total_referrals`
	var row struct {
		Users     int `db:"total_users"`
		Orders    int `db:"total_orders"`
		Referrals int `db:"total_referrals"`
	}
	if err := t.tx.GetContext(ctx, &row, query); err != nil {
		return ledger.Stats{}, fmt.Errorf("select stats: %w", err)
	}
	return ledger.Stats{
		TotalUsers:     row.Users,
		TotalOrders:    row.Orders,
		TotalReferrals: row.Referrals,
	}, nil
}
