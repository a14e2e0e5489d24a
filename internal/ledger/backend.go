package ledger

import "context"

// Tx is a unit of work against the store. Writes become durable only when the
// enclosing Update returns nil.
type Tx interface {
	// User returns ErrUserNotFound for unknown ids.
	User(ctx context.Context, id int64) (User, error)
	// UserByReferralCode returns ErrReferralCodeUnknown when no user owns code.
	UserByReferralCode(ctx context.Context, code string) (User, error)
	ReferralCodeTaken(ctx context.Context, code string) (bool, error)
	OrderIDTaken(ctx context.Context, id string) (bool, error)
	InsertUser(ctx context.Context, u User) error
	UpdateUser(ctx context.Context, u User) error
	AppendReferral(ctx context.Context, r Referral) error
	AppendOrder(ctx context.Context, o Order) error
	Orders(ctx context.Context, userID int64) ([]Order, error)
	Users(ctx context.Context) ([]User, error)
	Stats(ctx context.Context) (Stats, error)
}

// Backend runs units of work. Update is exclusive: no other unit of work observes
// its intermediate state, and a returned error discards every write made by fn.
type Backend interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}
