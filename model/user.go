package model

import (
	"time"

	"gorm.io/gorm"
)

/*

User is a data model for a registered account

Id: primary key, use to identify a user
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Email: unique login identifier, always stored lower-cased
PasswordHash: bcrypt hash of the password, never the raw password
FirstName / LastName: display name
Role: either "user" or "admin"
IsOnboarded: set to true once the user finished picking topic preferences,
		only onboarded users receive daily drops
LastLoginAt: login metadata, updated on each successful login

Preferences: topics this user follows with weights, "many-to-many" relation
Drops: daily drops delivered to this user, "has-many" relation

*/

type User struct {
	Id           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string `gorm:"default:user"`
	IsOnboarded  bool
	LastLoginAt  *time.Time
	Preferences  []*Topic     `json:"preferences" gorm:"many2many:user_preferences;"`
	Drops        []*DailyDrop `json:"drops" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
