package account

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used with STORAGE_DRIVER=memory and in
// tests. Each call holds the lock for its whole mutation.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	inbox    map[uuid.UUID][]Message
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*Account),
		inbox:    make(map[uuid.UUID][]Message),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	if err := s.checkUniqueLocked(acc.ID, acc.Username, acc.Email); err != nil {
		return err
	}

	now := s.now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	stored := *acc
	s.accounts[acc.ID] = &stored
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(acc), nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*Account, error) {
	return s.find(func(a *Account) bool { return a.Username == username })
}

func (s *MemoryStore) FindRecipient(_ context.Context, username string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Account
	for _, a := range s.accounts {
		if !strings.EqualFold(a.Username, username) {
			continue
		}
		if best == nil || betterRecipient(a, best) {
			best = a
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return clone(best), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	return s.find(func(a *Account) bool { return a.Email == email })
}

func (s *MemoryStore) GetByIdentifier(_ context.Context, identifier string) (*Account, error) {
	email := strings.ToLower(identifier)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Account
	for _, a := range s.accounts {
		if a.Email != email && a.Username != identifier {
			continue
		}
		if best == nil || (a.IsVerified && !best.IsVerified) {
			best = a
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return clone(best), nil
}

func (s *MemoryStore) UsernameTaken(_ context.Context, username string, excludeID uuid.UUID, verifiedOnly bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, a := range s.accounts {
		if id == excludeID || a.Username != username {
			continue
		}
		if verifiedOnly && !a.IsVerified {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) ReplacePending(_ context.Context, id uuid.UUID, p PendingSignup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc.IsVerified {
		return ErrNotFound
	}
	if err := s.checkUniqueLocked(id, p.Username, acc.Email); err != nil {
		return err
	}

	acc.Username = p.Username
	acc.PasswordHash = p.PasswordHash
	acc.VerifyCode = p.VerifyCode
	acc.VerifyCodeExpiry = p.VerifyCodeExpiry
	acc.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) UpdateVerificationCode(_ context.Context, id uuid.UUID, code string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc.IsVerified {
		return ErrNotFound
	}
	acc.VerifyCode = code
	acc.VerifyCodeExpiry = expiry
	acc.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(a *Account) error {
		a.IsVerified = true
		return nil
	})
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return s.update(id, func(a *Account) error {
		a.PasswordHash = passwordHash
		return nil
	})
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, username, name string) (*Account, error) {
	var updated *Account
	err := s.update(id, func(a *Account) error {
		if err := s.checkUniqueLocked(id, username, a.Email); err != nil {
			return err
		}
		a.Username = username
		a.Name = name
		updated = clone(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MemoryStore) SetAcceptingMessages(_ context.Context, id uuid.UUID, accepting bool) (bool, error) {
	var stored bool
	err := s.update(id, func(a *Account) error {
		a.IsAcceptingMessages = accepting
		stored = a.IsAcceptingMessages
		return nil
	})
	return stored, err
}

func (s *MemoryStore) AcceptingMessages(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return false, ErrNotFound
	}
	return acc.IsAcceptingMessages, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.inbox, id)
	return nil
}

func (s *MemoryStore) DeletePending(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc.IsVerified {
		return ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.inbox, id)
	return nil
}

func (s *MemoryStore) PurgeUnverified(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, a := range s.accounts {
		if a.IsVerified || !a.VerifyCodeExpiry.Before(cutoff) {
			continue
		}
		delete(s.accounts, id)
		delete(s.inbox, id)
		n++
	}
	return n, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, accountID uuid.UUID, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return ErrNotFound
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}
	s.inbox[accountID] = append(s.inbox[accountID], *msg)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, accountID uuid.UUID) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.accounts[accountID]; !ok {
		return nil, ErrNotFound
	}

	stored := s.inbox[accountID]
	out := make([]Message, 0, len(stored))
	// newest first; ties keep reverse insertion order
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	slices.SortStableFunc(out, func(a, b Message) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteMessage(_ context.Context, accountID, messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.inbox[accountID]
	idx := slices.IndexFunc(msgs, func(m Message) bool { return m.ID == messageID })
	if idx < 0 {
		return ErrMessageNotFound
	}
	s.inbox[accountID] = slices.Delete(msgs, idx, idx+1)
	return nil
}

func (s *MemoryStore) MarkMessageRead(_ context.Context, accountID, messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.inbox[accountID]
	idx := slices.IndexFunc(msgs, func(m Message) bool { return m.ID == messageID })
	if idx < 0 {
		return ErrMessageNotFound
	}
	msgs[idx].IsRead = true
	return nil
}

func (s *MemoryStore) find(match func(*Account) bool) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if match(a) {
			return clone(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) update(id uuid.UUID, fn func(*Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(acc); err != nil {
		return err
	}
	acc.UpdatedAt = s.now().UTC()
	return nil
}

// checkUniqueLocked mirrors the accounts_username_key and accounts_email_key
// constraints. Caller holds s.mu.
func (s *MemoryStore) checkUniqueLocked(id uuid.UUID, username, email string) error {
	for otherID, a := range s.accounts {
		if otherID == id {
			continue
		}
		if a.Username == username {
			return ErrDuplicateUsername
		}
		if a.Email == email {
			return ErrDuplicateEmail
		}
	}
	return nil
}

func betterRecipient(a, b *Account) bool {
	if a.IsVerified != b.IsVerified {
		return a.IsVerified
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func clone(a *Account) *Account {
	c := *a
	return &c
}
