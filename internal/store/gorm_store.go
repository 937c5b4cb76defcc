package store

import (
	"context"
	"errors"

	"note-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore implements Store on top of a GORM database handle.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the given database connection.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindUserWithTenantByEmail(ctx context.Context, email string) (*model.User, *model.Tenant, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var tenant model.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, user.TenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	return &user, &tenant, nil
}

func (s *gormStore) CountNotes(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Note{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (s *gormStore) ListNotes(ctx context.Context, tenantID uint) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&notes).Error
	return notes, err
}

func (s *gormStore) GetNote(ctx context.Context, id, tenantID uint) (*model.Note, error) {
	var note model.Note
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (s *gormStore) CreateNote(ctx context.Context, note *model.Note) error {
	return s.db.WithContext(ctx).Create(note).Error
}

// CreateNoteLimited locks the tenant row so that concurrent creates for the
// same tenant serialize on the count check, keeping the note count at or
// below limit.
func (s *gormStore) CreateNoteLimited(ctx context.Context, note *model.Note, limit int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tenant, note.TenantID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Note{}).Where("tenant_id = ?", note.TenantID).Count(&count).Error; err != nil {
			return err
		}
		if count >= limit {
			return ErrQuotaExceeded
		}

		return tx.Create(note).Error
	})
}

func (s *gormStore) UpdateNote(ctx context.Context, id, tenantID uint, title, content string) (*model.Note, error) {
	// Map updates so an empty content value is still written.
	result := s.db.WithContext(ctx).Model(&model.Note{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{"title": title, "content": content})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var note model.Note
	if err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *gormStore) DeleteNote(ctx context.Context, id, tenantID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) UpdateTenantPlan(ctx context.Context, slug, plan string) (*model.Tenant, error) {
	result := s.db.WithContext(ctx).Model(&model.Tenant{}).Where("slug = ?", slug).Update("plan", plan)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var tenant model.Tenant
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *gormStore) ListUsers(ctx context.Context, tenantID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&users).Error
	return users, err
}
