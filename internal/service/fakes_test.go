package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/queue"
	"github.com/iliyamo/billing-staff-auth/internal/repository"
	"github.com/iliyamo/billing-staff-auth/internal/session"
	"github.com/iliyamo/billing-staff-auth/internal/token"
)

type fakeStaff struct {
	mu        sync.Mutex
	rows      map[string]model.StaffRecord
	nextID    uint64
	createErr error
}

func newFakeStaff(recs ...model.StaffRecord) *fakeStaff {
	f := &fakeStaff{rows: map[string]model.StaffRecord{}}
	for _, r := range recs {
		f.nextID++
		r.ID = f.nextID
		f.rows[r.Username] = r
	}
	return f
}

func (f *fakeStaff) GetByUsername(_ context.Context, username string) (model.StaffRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[username]
	if !ok {
		return model.StaffRecord{}, repository.ErrStaffNotFound
	}
	return r, nil
}

func (f *fakeStaff) UsernameExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[username]
	return ok, nil
}

func (f *fakeStaff) Create(_ context.Context, s *model.StaffRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.rows[s.Username]; ok {
		return repository.ErrUsernameExists
	}
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now().UTC()
	f.rows[s.Username] = *s
	return nil
}

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[uint64]model.UserIdentity
	nextID uint64
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.UserIdentity{}} }

func (f *fakeUsers) UpsertByEmail(_ context.Context, email, name, hash string) (model.UserIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.byID {
		if u.Email == email {
			u.Name, u.PasswordHash = name, hash
			f.byID[id] = u
			return u, nil
		}
	}
	f.nextID++
	u := model.UserIdentity{ID: f.nextID, Email: email, Name: name, PasswordHash: hash}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.UserIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.UserIdentity{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeTokens tracks minted tokens per identity in memory.
type fakeTokens struct {
	mu        sync.Mutex
	next      uint64
	owner     map[string]uint64
	revoked   map[string]bool
	revokeErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) Mint(_ context.Context, userID uint64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	plain := strconv.FormatUint(f.next, 10) + "|secret" + strconv.FormatUint(f.next, 10)
	f.owner[plain] = userID
	return plain, nil
}

func (f *fakeTokens) Verify(_ context.Context, plain string) (model.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.owner[plain]
	if !ok || f.revoked[plain] {
		return model.AccessToken{}, token.ErrInvalidToken
	}
	id, _ := strconv.ParseUint(strings.SplitN(plain, "|", 2)[0], 10, 64)
	return model.AccessToken{ID: id, UserID: uid}, nil
}

func (f *fakeTokens) RevokeAll(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	for p, uid := range f.owner {
		if uid == userID {
			f.revoked[p] = true
		}
	}
	return nil
}

func (f *fakeTokens) minted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.owner)
}

func (f *fakeTokens) active(userID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for p, uid := range f.owner {
		if uid == userID && !f.revoked[p] {
			n++
		}
	}
	return n
}

// fakeHasher prefixes the plain text and counts Hash calls.
type fakeHasher struct {
	mu    sync.Mutex
	calls int
}

func (h *fakeHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return "hashed:" + plain, nil
}

func (h *fakeHasher) Verify(hash, plain string) bool { return hash == "hashed:"+plain }

func (h *fakeHasher) hashCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.StaffProvisionedEvent
	err    error
}

func (p *fakePublisher) PublishStaffProvisioned(_ context.Context, ev queue.StaffProvisionedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

var errBoom = errors.New("boom")

// failingDeleteStore fails every Delete and passes the rest through.
type failingDeleteStore struct {
	session.Store
	err error
}

func (s *failingDeleteStore) Delete(context.Context, string) error { return s.err }
