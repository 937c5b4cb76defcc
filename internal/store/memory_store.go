package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"note-service/internal/model"
)

// MemoryStore is an in-memory Store used when the service runs without a
// database and as a test double. All operations take the same lock, so the
// count check in CreateNoteLimited is serialized.
type MemoryStore struct {
	mu      sync.Mutex
	tenants map[uint]model.Tenant
	users   map[uint]model.User
	notes   map[uint]model.Note
	nextID  uint

	failErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: map[uint]model.Tenant{},
		users:   map[uint]model.User{},
		notes:   map[uint]model.Note{},
		nextID:  1,
	}
}

// FailWith makes every subsequent operation return err. Pass nil to clear.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// PutTenant stores the tenant, assigning an ID when missing.
func (s *MemoryStore) PutTenant(t model.Tenant) model.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextID
		s.nextID++
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.tenants[t.ID] = t
	return t
}

// PutUser stores the user, assigning an ID when missing.
func (s *MemoryStore) PutUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u
}

func (s *MemoryStore) FindUserWithTenantByEmail(_ context.Context, email string) (*model.User, *model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, nil, s.failErr
	}

	for _, u := range s.users {
		if u.Email == email {
			t, ok := s.tenants[u.TenantID]
			if !ok {
				return nil, nil, ErrNotFound
			}
			user := u
			tenant := t
			return &user, &tenant, nil
		}
	}
	return nil, nil, ErrNotFound
}

func (s *MemoryStore) CountNotes(_ context.Context, tenantID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	return s.countLocked(tenantID), nil
}

func (s *MemoryStore) countLocked(tenantID uint) int64 {
	var count int64
	for _, n := range s.notes {
		if n.TenantID == tenantID {
			count++
		}
	}
	return count
}

func (s *MemoryStore) ListNotes(_ context.Context, tenantID uint) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	notes := make([]model.Note, 0)
	for _, n := range s.notes {
		if n.TenantID == tenantID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (s *MemoryStore) GetNote(_ context.Context, id, tenantID uint) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	n, ok := s.notes[id]
	if !ok || n.TenantID != tenantID {
		return nil, ErrNotFound
	}
	note := n
	return &note, nil
}

func (s *MemoryStore) CreateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.createLocked(note)
	return nil
}

func (s *MemoryStore) CreateNoteLimited(_ context.Context, note *model.Note, limit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}

	if s.countLocked(note.TenantID) >= limit {
		return ErrQuotaExceeded
	}
	s.createLocked(note)
	return nil
}

func (s *MemoryStore) createLocked(note *model.Note) {
	note.ID = s.nextID
	s.nextID++
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	s.notes[note.ID] = *note
}

func (s *MemoryStore) UpdateNote(_ context.Context, id, tenantID uint, title, content string) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	n, ok := s.notes[id]
	if !ok || n.TenantID != tenantID {
		return nil, ErrNotFound
	}
	n.Title = title
	n.Content = content
	n.UpdatedAt = time.Now()
	s.notes[id] = n
	note := n
	return &note, nil
}

func (s *MemoryStore) DeleteNote(_ context.Context, id, tenantID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}

	n, ok := s.notes[id]
	if !ok || n.TenantID != tenantID {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStore) UpdateTenantPlan(_ context.Context, slug, plan string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	for id, t := range s.tenants {
		if t.Slug == slug {
			t.Plan = plan
			t.UpdatedAt = time.Now()
			s.tenants[id] = t
			tenant := t
			return &tenant, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context, tenantID uint) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}

	users := make([]model.User, 0)
	for _, u := range s.users {
		if u.TenantID == tenantID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
