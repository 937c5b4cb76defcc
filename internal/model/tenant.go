package model

import (
	"time"
)

// Plan values a tenant can be on. Upgrades only go free -> pro.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Tenant represents an organization. All notes and users belong to exactly
// one tenant, and the slug is the external identifier used in URLs.
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Plan      string    `json:"plan" gorm:"type:varchar(20);not null;default:'free'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
