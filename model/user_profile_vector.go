package model

import (
	"time"

	"gorm.io/datatypes"
)

/*

UserProfileVector is the single aggregated embedding of a user's taste

UserID: primary key, one row per user
UpdatedAt: time of last recompute

Embedding: weighted average of the user's preferred topic embeddings, weights
		being the preference weights. Recomputed lazily whenever absent or the
		preferences changed since UpdatedAt.

*/

type UserProfileVector struct {
	UserID    string `gorm:"primaryKey"`
	User      User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UpdatedAt time.Time
	Embedding datatypes.JSON
}
