package model

import (
	"time"

	"gorm.io/gorm"
)

/*

DailyDrop is one content item surfaced to one user on one day

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

UserID / ContentID: who got what, "belongs-to" relations
DropDate: UTC midnight of the day the drop was generated for
MatchScore: confidence(topic) x weight(topic), maximized over shared topics,
		unnormalized product of two roughly [0,1] scalars
WasViewed / WasBookmarked: flipped by user actions after delivery

(user_id, content_id, drop_date) carries a composite unique index so repeated
or concurrent generation runs for the same day cannot duplicate a drop, the
second insert fails on the constraint and is skipped.

*/

type DailyDrop struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	UserID        string  `gorm:"uniqueIndex:idx_user_content_date,composite:0;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User          User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ContentID     string  `gorm:"uniqueIndex:idx_user_content_date,composite:1;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Content       Content `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	DropDate      time.Time `gorm:"uniqueIndex:idx_user_content_date,composite:2;index"`
	MatchScore    float64
	WasViewed     bool
	WasBookmarked bool
}
