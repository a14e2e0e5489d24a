package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/viewsbot/core/logger"
)

const (
	// DefaultReferralReward is credited to a referrer per referred user.
	DefaultReferralReward int64 = 100
	// DefaultAdsPerReward is the number of ad views that earn one reward.
	DefaultAdsPerReward int64 = 10
	// DefaultAdReward is credited each time the ad counter hits a multiple of AdsPerReward.
	DefaultAdReward int64 = 1

	referralCodeLen = 8
	orderIDLen      = 12
	maxDrawAttempts = 64
)

// Options tune reward constants and the sources of ids and time.
type Options struct {
	ReferralReward int64
	AdsPerReward   int64
	AdReward       int64

	NewReferralCode func() string
	NewOrderID      func() string
	Now             func() time.Time
}

// Ledger implements the balance, referral and order rules on top of a Backend.
type Ledger struct {
	backend Backend
	opts    Options
}

// New wraps backend with the given options; zero fields take defaults.
func New(backend Backend, opts Options) *Ledger {
	if opts.ReferralReward <= 0 {
		opts.ReferralReward = DefaultReferralReward
	}
	if opts.AdsPerReward <= 0 {
		opts.AdsPerReward = DefaultAdsPerReward
	}
	if opts.AdReward <= 0 {
		opts.AdReward = DefaultAdReward
	}
	if opts.NewReferralCode == nil {
		opts.NewReferralCode = func() string { return shortUUID(referralCodeLen) }
	}
	if opts.NewOrderID == nil {
		opts.NewOrderID = func() string { return shortUUID(orderIDLen) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{backend: backend, opts: opts}
}

func shortUUID(n int) string {
	return uuid.NewString()[:n]
}

// AdsPerReward exposes the configured ad milestone for display purposes.
func (l *Ledger) AdsPerReward() int64 { return l.opts.AdsPerReward }

// ReferralReward exposes the configured referral reward for display purposes.
func (l *Ledger) ReferralReward() int64 { return l.opts.ReferralReward }

// CreateUser inserts a user with zero balances. It reports false and leaves the
// existing record untouched when the user is already known.
func (l *Ledger) CreateUser(ctx context.Context, id int64, username, firstName string) (bool, error) {
	created := false
	err := l.backend.Update(ctx, func(tx Tx) error {
		if _, err := tx.User(ctx, id); err == nil {
			return nil
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		code, err := draw(l.opts.NewReferralCode, func(c string) (bool, error) {
			return tx.ReferralCodeTaken(ctx, c)
		})
		if err != nil {
			return err
		}
		now := l.opts.Now()
		if err := tx.InsertUser(ctx, User{
			ID:             id,
			Username:       username,
			FirstName:      firstName,
			ReferralCode:   code,
			JoinedAt:       now,
			LastActivityAt: now,
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("create user %d: %w", id, err)
	}
	if created {
		logger.Info(ctx, "ledger", "user.created", slog.Int64("user_id", id))
	}
	return created, nil
}

// draw repeatedly calls gen until taken reports the value as free.
func draw(gen func() string, taken func(string) (bool, error)) (string, error) {
	for i := 0; i < maxDrawAttempts; i++ {
		v := gen()
		used, err := taken(v)
		if err != nil {
			return "", err
		}
		if !used {
			return v, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// User returns the user record or ErrUserNotFound.
func (l *Ledger) User(ctx context.Context, id int64) (User, error) {
	var u User
	err := l.backend.View(ctx, func(tx Tx) error {
		var err error
		u, err = tx.User(ctx, id)
		return err
	})
	return u, err
}

// TouchActivity stamps the user's last activity. Unknown users are ignored.
func (l *Ledger) TouchActivity(ctx context.Context, id int64) error {
	err := l.backend.Update(ctx, func(tx Tx) error {
		u, err := tx.User(ctx, id)
		if err != nil {
			return err
		}
		u.LastActivityAt = l.opts.Now()
		return tx.UpdateUser(ctx, u)
	})
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	return err
}

// AddBalance credits amount and returns the updated user.
func (l *Ledger) AddBalance(ctx context.Context, id, amount int64) (User, error) {
	if amount <= 0 {
		return User{}, ErrInvalidAmount
	}
	return l.mutateUser(ctx, id, func(u *User) error {
		u.Balance += amount
		return nil
	})
}

// SubtractBalance debits amount. It fails with ErrInsufficientBalance, leaving the
// balance unchanged, when amount exceeds the current balance.
func (l *Ledger) SubtractBalance(ctx context.Context, id, amount int64) (User, error) {
	if amount <= 0 {
		return User{}, ErrInvalidAmount
	}
	return l.mutateUser(ctx, id, func(u *User) error {
		if u.Balance < amount {
			return ErrInsufficientBalance
		}
		u.Balance -= amount
		return nil
	})
}

func (l *Ledger) mutateUser(ctx context.Context, id int64, fn func(*User) error) (User, error) {
	var out User
	err := l.backend.Update(ctx, func(tx Tx) error {
		u, err := tx.User(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// RecordAdView increments the ad counter and credits the ad reward whenever the
// new total is a multiple of AdsPerReward.
func (l *Ledger) RecordAdView(ctx context.Context, id int64) (AdView, error) {
	var view AdView
	_, err := l.mutateUser(ctx, id, func(u *User) error {
		u.AdsWatched++
		view.Total = u.AdsWatched
		if u.AdsWatched%l.opts.AdsPerReward == 0 {
			u.Balance += l.opts.AdReward
			view.Rewarded = true
		}
		return nil
	})
	if err != nil {
		return AdView{}, err
	}
	if view.Rewarded {
		logger.Info(ctx, "ledger", "ad.rewarded",
			slog.Int64("user_id", id),
			slog.Int64("ads_watched", view.Total),
		)
	}
	return view, nil
}

// ProcessReferral links newUserID to the owner of code and rewards the referrer.
// A user can be referred at most once.
func (l *Ledger) ProcessReferral(ctx context.Context, newUserID int64, code string) (User, error) {
	var referrer User
	err := l.backend.Update(ctx, func(tx Tx) error {
		ref, err := tx.UserByReferralCode(ctx, code)
		if err != nil {
			return err
		}
		if ref.ID == newUserID {
			return ErrSelfReferral
		}
		u, err := tx.User(ctx, newUserID)
		if err != nil {
			return err
		}
		if u.ReferredBy != nil {
			return ErrAlreadyReferred
		}

		referrerID := ref.ID
		u.ReferredBy = &referrerID
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		ref.Balance += l.opts.ReferralReward
		ref.ReferralsCount++
		if err := tx.UpdateUser(ctx, ref); err != nil {
			return err
		}
		if err := tx.AppendReferral(ctx, Referral{
			ReferrerID: ref.ID,
			UserID:     newUserID,
			Reward:     l.opts.ReferralReward,
			CreatedAt:  l.opts.Now(),
		}); err != nil {
			return err
		}
		referrer = ref
		return nil
	})
	if err != nil {
		logger.Debug(ctx, "ledger", "referral.rejected",
			slog.Int64("user_id", newUserID),
			slog.String("err", err.Error()),
		)
		return User{}, err
	}
	logger.Info(ctx, "ledger", "referral.processed",
		slog.Int64("user_id", newUserID),
		slog.Int64("referrer_id", referrer.ID),
	)
	return referrer, nil
}

// CreateOrder appends a pending order without touching the balance.
func (l *Ledger) CreateOrder(ctx context.Context, userID int64, link string, qty, cost int64) (string, error) {
	var id string
	err := l.backend.Update(ctx, func(tx Tx) error {
		o, err := l.newOrder(ctx, tx, userID, link, qty, cost)
		if err != nil {
			return err
		}
		id = o.ID
		return tx.AppendOrder(ctx, o)
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// PlaceOrder charges qty against the balance and records the order in a single
// unit of work, so an order never exists without its matching debit.
func (l *Ledger) PlaceOrder(ctx context.Context, userID int64, link string, qty int64) (Order, int64, error) {
	if qty <= 0 {
		return Order{}, 0, ErrInvalidAmount
	}
	var (
		order   Order
		balance int64
	)
	err := l.backend.Update(ctx, func(tx Tx) error {
		u, err := tx.User(ctx, userID)
		if err != nil {
			return err
		}
		if u.Balance < qty {
			return ErrInsufficientBalance
		}
		u.Balance -= qty
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		o, err := l.newOrder(ctx, tx, userID, link, qty, qty)
		if err != nil {
			return err
		}
		if err := tx.AppendOrder(ctx, o); err != nil {
			return err
		}
		order, balance = o, u.Balance
		return nil
	})
	if err != nil {
		return Order{}, 0, err
	}
	logger.Info(ctx, "ledger", "order.placed",
		slog.Int64("user_id", userID),
		slog.String("order_id", order.ID),
		slog.Int64("quantity", qty),
		slog.Int64("balance", balance),
	)
	return order, balance, nil
}

func (l *Ledger) newOrder(ctx context.Context, tx Tx, userID int64, link string, qty, cost int64) (Order, error) {
	id, err := draw(l.opts.NewOrderID, func(v string) (bool, error) {
		return tx.OrderIDTaken(ctx, v)
	})
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID:        id,
		UserID:    userID,
		VideoLink: link,
		Quantity:  qty,
		TotalCost: cost,
		Status:    OrderStatusPending,
		CreatedAt: l.opts.Now(),
	}, nil
}

// ReferralLink builds the t.me deep link carrying the user's referral code.
func (l *Ledger) ReferralLink(ctx context.Context, id int64, botHandle string) (string, error) {
	u, err := l.User(ctx, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://t.me/%s?start=%s", botHandle, url.QueryEscape(u.ReferralCode)), nil
}

// Orders lists the user's orders in creation order.
func (l *Ledger) Orders(ctx context.Context, userID int64) ([]Order, error) {
	var out []Order
	err := l.backend.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Orders(ctx, userID)
		return err
	})
	return out, err
}

// Users lists every known user ordered by id.
func (l *Ledger) Users(ctx context.Context) ([]User, error) {
	var out []User
	err := l.backend.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Users(ctx)
		return err
	})
	return out, err
}

// Stats returns store-wide counters.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	err := l.backend.View(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Stats(ctx)
		return err
	})
	return out, err
}
