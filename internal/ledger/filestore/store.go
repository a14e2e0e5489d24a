// Package filestore keeps the ledger in a single JSON document that is read
// fully at open and rewritten in full after every successful update.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/m3rciful/viewsbot/core/logger"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "user_data.json"

var errReadOnly = errors.New("filestore: write attempted in read-only view")

// Store is a ledger.Backend over one JSON file. All units of work are serialised.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  *document
}

var _ ledger.Backend = (*Store)(nil)

// Open loads the document at path. A missing file is created with empty
// containers; an unparseable one is moved aside and replaced with an empty document.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc = emptyDocument()
		if err := s.flush(); err != nil {
			return nil, err
		}
		logger.Ledger.Info("ledger file created",
			slog.String("event", "ledger.init"),
			slog.String("path", path),
		)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		renameErr := os.Rename(path, aside)
		attrs := []any{
			slog.String("event", "ledger.corrupt"),
			slog.String("path", path),
			slog.String("err", err.Error()),
		}
		if renameErr == nil {
			attrs = append(attrs, slog.String("moved_to", aside))
		}
		logger.Ledger.Warn("ledger file unreadable, starting empty", attrs...)

		s.doc = emptyDocument()
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	doc.normalize()
	s.doc = doc

	logger.Ledger.Info("ledger file loaded",
		slog.String("event", "ledger.init"),
		slog.String("path", path),
		slog.Int("users", len(doc.Users)),
		slog.Int("orders", len(doc.Orders)),
	)
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Update runs fn exclusively. On error, or when persisting fails, the in-memory
// document is restored to its state before fn ran.
func (s *Store) Update(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.doc.clone()
	tx := &fileTx{doc: s.doc}
	if err := fn(tx); err != nil {
		s.doc = snapshot
		return err
	}
	if !tx.dirty {
		return nil
	}
	if err := s.flush(); err != nil {
		s.doc = snapshot
		logger.Ledger.Error("ledger write failed",
			slog.String("event", "ledger.flush"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return err
	}
	return nil
}

// View runs fn against a read-only view of the document.
func (s *Store) View(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&fileTx{doc: s.doc, readOnly: true})
}

// Close is a no-op; every update is already on disk.
func (s *Store) Close() error { return nil }

// flush writes the document to a temp file in the same directory and renames it
// over the target, so readers never observe a partially written file.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

type fileTx struct {
	doc      *document
	readOnly bool
	dirty    bool
}

func (t *fileTx) write() error {
	if t.readOnly {
		return errReadOnly
	}
	t.dirty = true
	return nil
}

func (t *fileTx) User(_ context.Context, id int64) (ledger.User, error) {
	r, ok := t.doc.Users[key(id)]
	if !ok {
		return ledger.User{}, ledger.ErrUserNotFound
	}
	return r.toUser(), nil
}

func (t *fileTx) UserByReferralCode(_ context.Context, code string) (ledger.User, error) {
	if code == "" {
		return ledger.User{}, ledger.ErrReferralCodeUnknown
	}
	for _, r := range t.doc.Users {
		if r.ReferralCode == code {
			return r.toUser(), nil
		}
	}
	return ledger.User{}, ledger.ErrReferralCodeUnknown
}

func (t *fileTx) ReferralCodeTaken(ctx context.Context, code string) (bool, error) {
	_, err := t.UserByReferralCode(ctx, code)
	if errors.Is(err, ledger.ErrReferralCodeUnknown) {
		return false, nil
	}
	return err == nil, err
}

func (t *fileTx) OrderIDTaken(_ context.Context, id string) (bool, error) {
	for _, o := range t.doc.Orders {
		if o.OrderID == id {
			return true, nil
		}
	}
	return false, nil
}

func (t *fileTx) InsertUser(_ context.Context, u ledger.User) error {
	if err := t.write(); err != nil {
		return err
	}
	k := key(u.ID)
	if _, exists := t.doc.Users[k]; exists {
		return fmt.Errorf("filestore: user %d already exists", u.ID)
	}
	t.doc.Users[k] = fromUser(u)
	return nil
}

func (t *fileTx) UpdateUser(_ context.Context, u ledger.User) error {
	if err := t.write(); err != nil {
		return err
	}
	k := key(u.ID)
	if _, exists := t.doc.Users[k]; !exists {
		return ledger.ErrUserNotFound
	}
	t.doc.Users[k] = fromUser(u)
	return nil
}

func (t *fileTx) AppendReferral(_ context.Context, r ledger.Referral) error {
	if err := t.write(); err != nil {
		return err
	}
	k := key(r.ReferrerID)
	t.doc.Referrals[k] = append(t.doc.Referrals[k], referralRecord{
		UserID: r.UserID,
		Date:   formatTime(r.CreatedAt),
		Reward: r.Reward,
	})
	return nil
}

func (t *fileTx) AppendOrder(_ context.Context, o ledger.Order) error {
	if err := t.write(); err != nil {
		return err
	}
	t.doc.Orders = append(t.doc.Orders, fromOrder(o))
	return nil
}

func (t *fileTx) Orders(_ context.Context, userID int64) ([]ledger.Order, error) {
	var out []ledger.Order
	for _, o := range t.doc.Orders {
		if o.UserID == userID {
			out = append(out, o.toOrder())
		}
	}
	return out, nil
}

func (t *fileTx) Users(_ context.Context) ([]ledger.User, error) {
	out := make([]ledger.User, 0, len(t.doc.Users))
	for _, r := range t.doc.Users {
		out = append(out, r.toUser())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *fileTx) Stats(_ context.Context) (ledger.Stats, error) {
	referrals := 0
	for _, list := range t.doc.Referrals {
		referrals += len(list)
	}
	return ledger.Stats{
		TotalUsers:     len(t.doc.Users),
		TotalOrders:    len(t.doc.Orders),
		TotalReferrals: referrals,
	}, nil
}
