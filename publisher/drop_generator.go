package publisher

import (
	"sort"
	"time"

	"github.com/Luismorlan/dailydrop/model"
	"github.com/Luismorlan/dailydrop/utils"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Candidate is one scored content item competing for a drop slot.
type Candidate struct {
	ContentID string
	Source    string
	Score     float64
}

// DropGenerator computes the daily drop set for individual users.
type DropGenerator struct {
	DB *gorm.DB

	MaxItems      int
	LookbackDays  int
	ExclusionDays int
}

func NewDropGenerator(db *gorm.DB, maxItems int, lookbackDays int, exclusionDays int) *DropGenerator {
	return &DropGenerator{DB: db, MaxItems: maxItems, LookbackDays: lookbackDays, ExclusionDays: exclusionDays}
}

// GenerateUserDailyDrop selects up to MaxItems content items for one user and
// persists them as DailyDrop rows dated today (UTC midnight). A user without
// preferences, or without any topic overlap in the candidate window, gets an
// empty result, not an error.
func (g *DropGenerator) GenerateUserDailyDrop(userId string) ([]model.DailyDrop, error) {
	prefWeights, err := g.loadPreferenceWeights(userId)
	if err != nil {
		return nil, err
	}
	if len(prefWeights) == 0 {
		return nil, nil
	}

	candidates, err := g.scoreCandidates(userId, prefWeights)
	if err != nil {
		return nil, err
	}
	selected := selectDrops(candidates, g.MaxItems)
	if len(selected) == 0 {
		return nil, nil
	}

	dropDate := UTCMidnight(time.Now())
	drops := []model.DailyDrop{}
	for _, candidate := range selected {
		drop := model.DailyDrop{
			Id:         utils.NewUUID(),
			UserID:     userId,
			ContentID:  candidate.ContentID,
			DropDate:   dropDate,
			MatchScore: candidate.Score,
		}
		if err := g.DB.Create(&drop).Error; err != nil {
			// Most likely the (user, content, drop_date) unique index on a
			// concurrent or repeated run, skip the row and keep going.
			Logger.Log.Error("fail to insert daily drop for user ", userId, " content ", candidate.ContentID, ": ", err)
			continue
		}
		drops = append(drops, drop)
	}
	return drops, nil
}

func (g *DropGenerator) loadPreferenceWeights(userId string) (map[string]float64, error) {
	var prefs []model.UserPreference
	if err := g.DB.Where("user_id = ?", userId).Find(&prefs).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load preferences for user "+userId)
	}
	weights := make(map[string]float64, len(prefs))
	for _, pref := range prefs {
		weights[pref.TopicID] = pref.Weight
	}
	return weights, nil
}

// scoreCandidates scores every classified content item in the lookback window
// that shares a topic with the user and was not dropped to them recently.
// Score is confidence x weight maximized over the shared topics.
func (g *DropGenerator) scoreCandidates(userId string, prefWeights map[string]float64) ([]Candidate, error) {
	topicIds := make([]string, 0, len(prefWeights))
	for topicId := range prefWeights {
		topicIds = append(topicIds, topicId)
	}

	type scoredRow struct {
		ContentID  string
		TopicID    string
		Confidence float64
		Source     string
	}
	var rows []scoredRow
	err := g.DB.Table("content_topics").
		Select("content_topics.content_id, content_topics.topic_id, content_topics.confidence, contents.source").
		Joins("JOIN contents ON contents.id = content_topics.content_id").
		Where("contents.created_at > ?", time.Now().UTC().AddDate(0, 0, -g.LookbackDays)).
		Where("contents.status = ?", model.StatusApproved).
		Where("contents.deleted_at IS NULL").
		Where("content_topics.deleted_at IS NULL").
		Where("content_topics.topic_id IN ?", topicIds).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load drop candidates for user "+userId)
	}

	recent, err := g.recentlyDropped(userId)
	if err != nil {
		return nil, err
	}

	bestByContent := map[string]*Candidate{}
	for _, row := range rows {
		if recent[row.ContentID] {
			continue
		}
		score := row.Confidence * prefWeights[row.TopicID]
		if existing, ok := bestByContent[row.ContentID]; !ok || score > existing.Score {
			bestByContent[row.ContentID] = &Candidate{
				ContentID: row.ContentID,
				Source:    row.Source,
				Score:     score,
			}
		}
	}

	candidates := make([]Candidate, 0, len(bestByContent))
	for _, candidate := range bestByContent {
		candidates = append(candidates, *candidate)
	}
	return candidates, nil
}

// recentlyDropped returns the content ids delivered to this user within the
// exclusion window, keyed for O(1) lookup.
func (g *DropGenerator) recentlyDropped(userId string) (map[string]bool, error) {
	var contentIds []string
	err := g.DB.Model(&model.DailyDrop{}).
		Where("user_id = ?", userId).
		Where("drop_date > ?", time.Now().UTC().AddDate(0, 0, -g.ExclusionDays)).
		Pluck("content_id", &contentIds).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load recent drops for user "+userId)
	}
	recent := make(map[string]bool, len(contentIds))
	for _, id := range contentIds {
		recent[id] = true
	}
	return recent, nil
}

// selectDrops applies the selection heuristic: if candidates exceed maxItems,
// the single best youtube item (if any) takes the first slot, remaining slots
// prefer one item per distinct source, then top up by pure score.
func selectDrops(candidates []Candidate, maxItems int) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ContentID < sorted[j].ContentID
	})

	if len(sorted) <= maxItems {
		return sorted
	}

	selected := []Candidate{}
	used := map[string]bool{}
	sourceCount := map[string]int{}
	take := func(candidate Candidate) {
		selected = append(selected, candidate)
		used[candidate.ContentID] = true
		sourceCount[candidate.Source]++
	}

	// Editorial priority: the best youtube item always makes the cut.
	for _, candidate := range sorted {
		if candidate.Source == model.SourceYouTube {
			take(candidate)
			break
		}
	}

	// One item per distinct source first.
	for _, candidate := range sorted {
		if len(selected) >= maxItems {
			break
		}
		if used[candidate.ContentID] || sourceCount[candidate.Source] > 0 {
			continue
		}
		take(candidate)
	}

	// Then pure score.
	for _, candidate := range sorted {
		if len(selected) >= maxItems {
			break
		}
		if used[candidate.ContentID] {
			continue
		}
		take(candidate)
	}
	return selected
}

// UTCMidnight truncates a timestamp to the start of its UTC day.
func UTCMidnight(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
