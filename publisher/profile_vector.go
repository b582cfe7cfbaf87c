package publisher

import (
	"context"
	"time"

	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/model"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureProfileVector returns the user's aggregated taste embedding,
// recomputing and persisting it when absent. The vector is the weighted
// average of the user's preferred topic embeddings, weights being the
// preference weights. Returns nil (not an error) for users without
// preferences or when no topic embedding is available yet.
func EnsureProfileVector(ctx context.Context, db *gorm.DB, cache *classifier.TopicEmbeddingCache, userId string) ([]float64, error) {
	var stored model.UserProfileVector
	err := db.Where("user_id = ?", userId).First(&stored).Error
	if err == nil {
		return model.UnmarshalEmbedding(stored.Embedding)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "fail to load profile vector for user "+userId)
	}

	vector, err := computeProfileVector(ctx, db, cache, userId)
	if err != nil || vector == nil {
		return nil, err
	}

	blob, err := model.MarshalEmbedding(vector)
	if err != nil {
		return nil, err
	}
	row := model.UserProfileVector{UserID: userId, UpdatedAt: time.Now().UTC(), Embedding: blob}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "embedding"}),
	}).Create(&row).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to persist profile vector for user "+userId)
	}
	return vector, nil
}

func computeProfileVector(ctx context.Context, db *gorm.DB, cache *classifier.TopicEmbeddingCache, userId string) ([]float64, error) {
	var prefs []model.UserPreference
	if err := db.Where("user_id = ?", userId).Find(&prefs).Error; err != nil {
		return nil, err
	}
	if len(prefs) == 0 || cache == nil {
		return nil, nil
	}

	topics, err := cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	vectorByTopic := make(map[string][]float64, len(topics))
	for _, topic := range topics {
		vectorByTopic[topic.TopicID] = topic.Vector
	}

	var acc []float64
	var totalWeight float64
	for _, pref := range prefs {
		vec, ok := vectorByTopic[pref.TopicID]
		if !ok || len(vec) == 0 || pref.Weight == 0 {
			continue
		}
		if acc == nil {
			acc = make([]float64, len(vec))
		}
		if len(vec) != len(acc) {
			continue
		}
		floats.AddScaled(acc, pref.Weight, vec)
		totalWeight += pref.Weight
	}
	if acc == nil || totalWeight == 0 {
		return nil, nil
	}
	floats.Scale(1/totalWeight, acc)
	return acc, nil
}
