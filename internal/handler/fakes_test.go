package handler

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/nordmark-digital/portal/internal/mailer"
	"github.com/nordmark-digital/portal/internal/model"
	"github.com/nordmark-digital/portal/internal/repository"
)

// ----- users -----

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]model.User
	nextID  uint64
	deleted []uint64
	listErr error
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]model.User{}, nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = f.nextID
		}
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) Create(ctx context.Context, email, name, role string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := f.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	id := f.nextID
	f.nextID++
	f.byEmail[email] = model.User{ID: id, Email: email, Name: name, Role: role, CreatedAt: time.Now().UTC()}
	return id, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) List(ctx context.Context) ([]model.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.byEmail))
	for _, u := range f.byEmail {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, u := range f.byEmail {
		if u.ID == id {
			delete(f.byEmail, email)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ----- login codes -----

type codeRow struct {
	email     string
	code      string
	ip        string
	expiresAt time.Time
	createdAt time.Time
	used      bool
}

// memCodes mimics the MySQL login-code repository closely enough to
// exercise the issue/verify lifecycle, including the rate-limit counts
// derived from the same rows.
type memCodes struct {
	mu            sync.Mutex
	rows          []*codeRow
	createErr     error
	countEmailErr error
	countIPErr    error
	consumeErr    error
}

func (m *memCodes) Create(ctx context.Context, email, code string, expiresAt time.Time, ip string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &codeRow{
		email: email, code: code, ip: ip,
		expiresAt: expiresAt, createdAt: time.Now().UTC(),
	})
	return nil
}

func (m *memCodes) InvalidateForEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.email == email {
			r.used = true
		}
	}
	return nil
}

func (m *memCodes) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	if m.consumeErr != nil {
		return false, m.consumeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- { // newest first
		r := m.rows[i]
		if r.email == email && r.code == code && !r.used && r.expiresAt.After(now) {
			r.used = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memCodes) CountForEmailSince(ctx context.Context, email string, since time.Time) (int, error) {
	if m.countEmailErr != nil {
		return 0, m.countEmailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.email == email && !r.createdAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memCodes) CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.countIPErr != nil {
		return 0, m.countIPErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.ip == ip && !r.createdAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memCodes) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !r.createdAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

// latestCode returns the newest code issued for an email, used by tests
// to read back what "the mail" would contain.
func (m *memCodes) latestCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].email == email {
			return m.rows[i].code
		}
	}
	return ""
}

// ----- sessions -----

type sessRow struct {
	userID    uint64
	expiresAt time.Time
}

type fakeSessions struct {
	mu        sync.Mutex
	rows      map[string]sessRow
	users     map[uint64]model.User
	createErr error
	deleteErr error
	deleted   []string
}

func newFakeSessions(users ...model.User) *fakeSessions {
	f := &fakeSessions{rows: map[string]sessRow{}, users: map[uint64]model.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeSessions) Create(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[token] = sessRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeSessions) ResolveUser(ctx context.Context, token string, now time.Time) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[token]
	if !ok || !row.expiresAt.After(now) {
		return model.User{}, sql.ErrNoRows
	}
	u, ok := f.users[row.userID]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeSessions) DeleteByToken(ctx context.Context, token string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, token)
	f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	delete(f.rows, token)
	f.mu.Unlock()
	return nil
}

// ----- contact submissions -----

type contactRow struct {
	email     string
	ip        string
	createdAt time.Time
}

type memContacts struct {
	mu            sync.Mutex
	rows          []contactRow
	recordErr     error
	countEmailErr error
	countIPErr    error
}

func (m *memContacts) Record(ctx context.Context, email, ip string) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, contactRow{email: email, ip: ip, createdAt: time.Now().UTC()})
	return nil
}

func (m *memContacts) CountForEmailSince(ctx context.Context, email string, since time.Time) (int, error) {
	if m.countEmailErr != nil {
		return 0, m.countEmailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.email == email && !r.createdAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memContacts) CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.countIPErr != nil {
		return 0, m.countIPErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.ip == ip && !r.createdAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ----- mail and events -----

type fakeMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	sendErr error
}

func (f *fakeMailer) Send(msg mailer.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type fakeEvents struct {
	mu       sync.Mutex
	logins   int
	contacts int
}

func (f *fakeEvents) LoginCompleted(ctx context.Context, email string, userID uint64, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	return nil
}

func (f *fakeEvents) ContactReceived(ctx context.Context, name, email, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts++
	return nil
}
