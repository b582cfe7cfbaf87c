package model

import (
	"time"

	"gorm.io/gorm"
)

/*

UserPreference is a "many-to-many" relation of a user following a topic

UserID: user id
TopicID: topic id
CreatedAt: time when relation is created
DeletedAt: time when relation is deleted

Weight: preference strength in [0, +inf), conventionally 0-1. Multiplied with
		classification confidence to produce the daily drop match score.

The full preference set of a user is always replaced atomically, never patched
row by row, see ReplacePreferences.

*/

type UserPreference struct {
	UserID    string `gorm:"primaryKey"`
	TopicID   string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	Weight    float64
}

func (UserPreference) BeforeCreate(db *gorm.DB) error {
	return nil
}
