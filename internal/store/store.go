package store

import (
	"context"
	"errors"

	"note-service/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to a
	// different tenant. The two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("record not found")

	// ErrQuotaExceeded is returned by CreateNoteLimited when the tenant is
	// already at its note limit.
	ErrQuotaExceeded = errors.New("note quota exceeded")
)

// Store is the storage capability required by the handlers. Every note
// operation takes the verified tenant ID as part of the key, so tenant
// isolation is enforced at the query level rather than in handler code.
type Store interface {
	FindUserWithTenantByEmail(ctx context.Context, email string) (*model.User, *model.Tenant, error)

	CountNotes(ctx context.Context, tenantID uint) (int64, error)
	ListNotes(ctx context.Context, tenantID uint) ([]model.Note, error)
	GetNote(ctx context.Context, id, tenantID uint) (*model.Note, error)
	CreateNote(ctx context.Context, note *model.Note) error
	// CreateNoteLimited creates the note only while the tenant's note count
	// stays below limit, with the count and insert serialized against
	// concurrent creates for the same tenant.
	CreateNoteLimited(ctx context.Context, note *model.Note, limit int64) error
	UpdateNote(ctx context.Context, id, tenantID uint, title, content string) (*model.Note, error)
	DeleteNote(ctx context.Context, id, tenantID uint) error

	UpdateTenantPlan(ctx context.Context, slug, plan string) (*model.Tenant, error)
	ListUsers(ctx context.Context, tenantID uint) ([]model.User, error)
}
