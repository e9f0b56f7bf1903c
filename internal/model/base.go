package model

import (
	"time"
)

type (
	// A Model defines an object that can be stored in database.
	Model interface {
		// GetID returns the model's ID.
		GetID() uint
		// IsNew returns true if the model has never been persisted.
		IsNew() bool
		// GetCreatedAt returns the model's creation date.
		GetCreatedAt() time.Time
		// GetUpdatedAt returns the model's last update date.
		GetUpdatedAt() time.Time
	}

	// A Base contains the default model fields.
	// Timestamps are stamped by the ORM on insert and update.
	Base struct {
		ID        uint      `json:"id"           gorm:"primaryKey"`
		CreatedAt time.Time `json:"date_created" gorm:"not null"`
		UpdatedAt time.Time `json:"date_updated"`
	}
)

// GetID returns the model's ID.
func (m *Base) GetID() uint {
	return m.ID
}

// IsNew returns true if the model has never been persisted.
func (m *Base) IsNew() bool {
	return m.ID == 0
}

// GetCreatedAt returns the model's creation date.
func (m *Base) GetCreatedAt() time.Time {
	return m.CreatedAt
}

// GetUpdatedAt returns the model's last update date.
func (m *Base) GetUpdatedAt() time.Time {
	return m.UpdatedAt
}
