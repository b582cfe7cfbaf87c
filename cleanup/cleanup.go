package cleanup

import (
	"context"
	"time"

	"github.com/Luismorlan/dailydrop/model"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Cleaner removes aged content in bounded batches. Bookmarked content
// (is_saved) is always retained regardless of age.
type Cleaner struct {
	DB *gorm.DB

	RetentionDays int
	BatchSize     int
	// Pause between delete batches so a large purge doesn't monopolize the DB.
	BatchPause time.Duration
	// ScheduleCleanup only acts above this total content count.
	ContentThreshold int
}

func NewCleaner(db *gorm.DB, retentionDays int, batchSize int, batchPause time.Duration, threshold int) *Cleaner {
	return &Cleaner{
		DB:               db,
		RetentionDays:    retentionDays,
		BatchSize:        batchSize,
		BatchPause:       batchPause,
		ContentThreshold: threshold,
	}
}

// CleanupResult reports one cleanup run. Batch level errors are accumulated,
// they never abort the run.
type CleanupResult struct {
	DeletedCount  int      `json:"deletedCount"`
	RetainedSaved int      `json:"retainedSaved"`
	Errors        []string `json:"errors"`
}

// CleanupOldContent deletes content older than the retention window in fixed
// size batches, removing dependent classification rows first to satisfy
// referential integrity.
func (c *Cleaner) CleanupOldContent(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{}
	cutoff := time.Now().UTC().AddDate(0, 0, -c.RetentionDays)

	var retained int64
	if err := c.DB.Model(&model.Content{}).
		Where("created_at < ? AND is_saved = ?", cutoff, true).
		Count(&retained).Error; err != nil {
		return nil, errors.Wrap(err, "fail to count retained content")
	}
	result.RetainedSaved = int(retained)

	// Ids from batches that failed to delete. Excluding them from later
	// listings keeps one bad batch from starving the rest of the run.
	var failedIds []string
	for {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, ctx.Err().Error())
			return result, nil
		default:
		}

		query := c.DB.Model(&model.Content{}).
			Where("created_at < ? AND is_saved = ?", cutoff, false)
		if len(failedIds) > 0 {
			query = query.Where("id NOT IN ?", failedIds)
		}
		var ids []string
		if err := query.Limit(c.BatchSize).Pluck("id", &ids).Error; err != nil {
			result.Errors = append(result.Errors, err.Error())
			Logger.Log.Error("fail to list content batch for cleanup: ", err)
			break
		}
		if len(ids) == 0 {
			break
		}

		deleted, err := c.deleteBatch(ids)
		result.DeletedCount += deleted
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			Logger.Log.Error("fail to delete content batch: ", err)
			failedIds = append(failedIds, ids...)
		}

		if len(ids) < c.BatchSize {
			break
		}
		time.Sleep(c.BatchPause)
	}

	Logger.Log.Info("cleanup run finished, deleted: ", result.DeletedCount, " retained saved: ", result.RetainedSaved)
	return result, nil
}

// deleteBatch removes one batch of content rows with their dependents, in one
// transaction so a failure cannot strand classification-less content.
// Approved submissions pointing at a deleted row are detached, not deleted,
// the submission itself is moderation history.
func (c *Cleaner) deleteBatch(ids []string) (int, error) {
	deleted := 0
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("content_id IN ?", ids).Delete(&model.ContentTopic{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("content_id IN ?", ids).Delete(&model.DailyDrop{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.UserSubmission{}).Where("content_id IN ?", ids).Update("content_id", nil).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id IN ?", ids).Delete(&model.Content{})
		if res.Error != nil {
			return res.Error
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	return deleted, err
}

// StorageStats buckets content rows by age and derives a textual
// recommendation from fixed thresholds.
type StorageStats struct {
	TotalContent   int64  `json:"totalContent"`
	Last7Days      int64  `json:"last7Days"`
	Last30Days     int64  `json:"last30Days"`
	Last90Days     int64  `json:"last90Days"`
	Older          int64  `json:"older"`
	SavedContent   int64  `json:"savedContent"`
	TotalDrops     int64  `json:"totalDrops"`
	Recommendation string `json:"recommendation"`
}

func (c *Cleaner) GetStorageStats() (*StorageStats, error) {
	stats := &StorageStats{}
	now := time.Now().UTC()

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalContent, c.DB.Model(&model.Content{})},
		{&stats.Last7Days, c.DB.Model(&model.Content{}).Where("created_at > ?", now.AddDate(0, 0, -7))},
		{&stats.Last30Days, c.DB.Model(&model.Content{}).Where("created_at > ?", now.AddDate(0, 0, -30))},
		{&stats.Last90Days, c.DB.Model(&model.Content{}).Where("created_at > ?", now.AddDate(0, 0, -90))},
		{&stats.Older, c.DB.Model(&model.Content{}).Where("created_at <= ?", now.AddDate(0, 0, -90))},
		{&stats.SavedContent, c.DB.Model(&model.Content{}).Where("is_saved = ?", true)},
		{&stats.TotalDrops, c.DB.Model(&model.DailyDrop{})},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return nil, errors.Wrap(err, "fail to compute storage stats")
		}
	}

	stats.Recommendation = Recommendation(stats.TotalContent)
	return stats, nil
}

// Recommendation maps a total row count onto the fixed advisory thresholds.
func Recommendation(totalContent int64) string {
	switch {
	case totalContent >= 50000:
		return "urgent: run cleanup now"
	case totalContent >= 20000:
		return "cleanup recommended"
	case totalContent >= 10000:
		return "cleanup recommended soon"
	default:
		return "stable"
	}
}

// ScheduleCleanup runs cleanup only when totals exceed the configured
// threshold. Idempotent conditional execution, not a scheduler.
func (c *Cleaner) ScheduleCleanup(ctx context.Context) (*CleanupResult, bool, error) {
	stats, err := c.GetStorageStats()
	if err != nil {
		return nil, false, err
	}
	if stats.TotalContent < int64(c.ContentThreshold) {
		return nil, false, nil
	}
	result, err := c.CleanupOldContent(ctx)
	return result, true, err
}
