package filestore

import (
	"strconv"
	"time"

	"github.com/m3rciful/viewsbot/internal/ledger"
)

// document is the on-disk layout: one JSON object holding every entity.
type document struct {
	Users     map[string]userRecord       `json:"users"`
	Referrals map[string][]referralRecord `json:"referrals"`
	Orders    []orderRecord               `json:"orders"`
}

type userRecord struct {
	UserID         int64   `json:"user_id"`
	Username       *string `json:"username"`
	FirstName      *string `json:"first_name"`
	Balance        int64   `json:"balance"`
	AdsWatched     int64   `json:"ads_watched"`
	ReferralCode   string  `json:"referral_code"`
	ReferredBy     *int64  `json:"referred_by"`
	ReferralsCount int64   `json:"referrals_count"`
	JoinDate       string  `json:"join_date"`
	LastActivity   string  `json:"last_activity"`
}

type referralRecord struct {
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`
	Reward int64  `json:"reward"`
}

type orderRecord struct {
	OrderID   string `json:"order_id"`
	UserID    int64  `json:"user_id"`
	VideoLink string `json:"video_link"`
	Quantity  int64  `json:"quantity"`
	TotalCost int64  `json:"total_cost"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func emptyDocument() *document {
	return &document{
		Users:     map[string]userRecord{},
		Referrals: map[string][]referralRecord{},
		Orders:    []orderRecord{},
	}
}

// normalize replaces containers that decoded as null.
func (d *document) normalize() {
	if d.Users == nil {
		d.Users = map[string]userRecord{}
	}
	if d.Referrals == nil {
		d.Referrals = map[string][]referralRecord{}
	}
	if d.Orders == nil {
		d.Orders = []orderRecord{}
	}
}

// clone copies the containers. Records are values and are replaced, never
// edited in place, so a shallow copy is a faithful snapshot.
func (d *document) clone() *document {
	c := &document{
		Users:     make(map[string]userRecord, len(d.Users)),
		Referrals: make(map[string][]referralRecord, len(d.Referrals)),
		Orders:    d.Orders[:len(d.Orders):len(d.Orders)],
	}
	for k, v := range d.Users {
		c.Users[k] = v
	}
	for k, v := range d.Referrals {
		c.Referrals[k] = v[:len(v):len(v)]
	}
	return c
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// legacyLayout accepts naive ISO-8601 timestamps written without a zone.
const legacyLayout = "2006-01-02T15:04:05.999999999"

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(legacyLayout, s, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fromUser(u ledger.User) userRecord {
	return userRecord{
		UserID:         u.ID,
		Username:       optional(u.Username),
		FirstName:      optional(u.FirstName),
		Balance:        u.Balance,
		AdsWatched:     u.AdsWatched,
		ReferralCode:   u.ReferralCode,
		ReferredBy:     u.ReferredBy,
		ReferralsCount: u.ReferralsCount,
		JoinDate:       formatTime(u.JoinedAt),
		LastActivity:   formatTime(u.LastActivityAt),
	}
}

func (r userRecord) toUser() ledger.User {
	u := ledger.User{
		ID:             r.UserID,
		Username:       deref(r.Username),
		FirstName:      deref(r.FirstName),
		Balance:        r.Balance,
		AdsWatched:     r.AdsWatched,
		ReferralCode:   r.ReferralCode,
		ReferralsCount: r.ReferralsCount,
		JoinedAt:       parseTime(r.JoinDate),
		LastActivityAt: parseTime(r.LastActivity),
	}
	if r.ReferredBy != nil {
		v := *r.ReferredBy
		u.ReferredBy = &v
	}
	return u
}

func fromOrder(o ledger.Order) orderRecord {
	return orderRecord{
		OrderID:   o.ID,
		UserID:    o.UserID,
		VideoLink: o.VideoLink,
		Quantity:  o.Quantity,
		TotalCost: o.TotalCost,
		Status:    string(o.Status),
		CreatedAt: formatTime(o.CreatedAt),
	}
}

func (r orderRecord) toOrder() ledger.Order {
	return ledger.Order{
		ID:        r.OrderID,
		UserID:    r.UserID,
		VideoLink: r.VideoLink,
		Quantity:  r.Quantity,
		TotalCost: r.TotalCost,
		Status:    ledger.OrderStatus(r.Status),
		CreatedAt: parseTime(r.CreatedAt),
	}
}
