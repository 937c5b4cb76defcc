package model

import (
	"time"
)

// Note represents a note owned by a tenant. TenantID and UserID are always
// stamped from verified claims, never from client input.
type Note struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null;default:''"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
