package model

import (
	"gorm.io/gorm"
)

// The many-to-many sets below follow a delete-then-insert replace pattern.
// Exposing the two steps as one transactional method keeps the "at most one
// row per (owner, topic)" invariant even if a caller races a reader.

// ReplacePreferences atomically swaps the whole preference set of a user.
// Passing an empty slice clears all preferences, it is a replace, not a merge.
func ReplacePreferences(db *gorm.DB, userId string, prefs []UserPreference) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", userId).Delete(&UserPreference{}).Error; err != nil {
			return err
		}
		for idx := range prefs {
			prefs[idx].UserID = userId
		}
		if len(prefs) == 0 {
			return nil
		}
		if err := tx.Create(&prefs).Error; err != nil {
			return err
		}
		// Preference change invalidates the aggregated profile vector, it will
		// be recomputed lazily on the next drop generation.
		return tx.Unscoped().Where("user_id = ?", userId).Delete(&UserProfileVector{}).Error
	})
}

// ReplaceClassifications atomically swaps the topic associations of a content
// item with a fresh classification result.
func ReplaceClassifications(db *gorm.DB, contentId string, classifications []ContentTopic) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("content_id = ?", contentId).Delete(&ContentTopic{}).Error; err != nil {
			return err
		}
		for idx := range classifications {
			classifications[idx].ContentID = contentId
		}
		if len(classifications) == 0 {
			return nil
		}
		return tx.Create(&classifications).Error
	})
}
