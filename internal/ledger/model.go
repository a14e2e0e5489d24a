// Package ledger owns users, referral logs and orders together with the
// balance rules that govern them. Storage is delegated to a Backend.
package ledger

import (
	"errors"
	"time"
)

// OrderStatus tags an order's lifecycle position. Only pending is produced today.
type OrderStatus string

const (
	// OrderStatusPending is assigned to every newly created order.
	OrderStatusPending OrderStatus = "pending"
)

// User is a bot user and their credit account.
type User struct {
	ID             int64     `db:"user_id"`
	Username       string    `db:"username"`
	FirstName      string    `db:"first_name"`
	Balance        int64     `db:"balance"`
	AdsWatched     int64     `db:"ads_watched"`
	ReferralCode   string    `db:"referral_code"`
	ReferredBy     *int64    `db:"referred_by"`
	ReferralsCount int64     `db:"referrals_count"`
	JoinedAt       time.Time `db:"join_date"`
	LastActivityAt time.Time `db:"last_activity"`
}

// Referral logs one referred user under a referrer.
type Referral struct {
	ReferrerID int64     `db:"referrer_id"`
	UserID     int64     `db:"user_id"`
	Reward     int64     `db:"reward"`
	CreatedAt  time.Time `db:"created_at"`
}

// Order is a purchase of views for a link, charged against balance.
type Order struct {
	ID        string      `db:"order_id"`
	UserID    int64       `db:"user_id"`
	VideoLink string      `db:"video_link"`
	Quantity  int64       `db:"quantity"`
	TotalCost int64       `db:"total_cost"`
	Status    OrderStatus `db:"status"`
	CreatedAt time.Time   `db:"created_at"`
}

// Stats aggregates store-wide counters for the admin panel.
type Stats struct {
	TotalUsers     int
	TotalOrders    int
	TotalReferrals int
}

// AdView reports the outcome of a recorded ad view.
type AdView struct {
	Total    int64
	Rewarded bool
}

// NextRewardIn returns how many more ads are needed for the next credit.
func (v AdView) NextRewardIn(every int64) int64 {
	if every <= 0 {
		return 0
	}
	return every - v.Total%every
}

var (
	// ErrUserNotFound is returned when the user has no record.
	ErrUserNotFound = errors.New("ledger: user not found")
	// ErrInvalidAmount is returned for non-positive balance changes or quantities.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInsufficientBalance is returned when a debit exceeds the balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrReferralCodeUnknown is returned when no user owns the code.
	ErrReferralCodeUnknown = errors.New("ledger: referral code not found")
	// ErrSelfReferral is returned when a user presents their own code.
	ErrSelfReferral = errors.New("ledger: self referral")
	// ErrAlreadyReferred is returned when the user already has a referrer.
	ErrAlreadyReferred = errors.New("ledger: user already referred")
	// ErrCodeSpaceExhausted is returned when no unique identifier could be drawn.
	ErrCodeSpaceExhausted = errors.New("ledger: could not generate unique code")
)
