package classifier

import (
	"context"
	"sync"
	"time"

	"github.com/Luismorlan/dailydrop/model"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"gorm.io/gorm"
)

// TopicEmbedding is a topic with its deserialized vector, ready for cosine
// comparison.
type TopicEmbedding struct {
	TopicID   string
	TopicName string
	Vector    []float64
}

// TopicEmbeddingCache holds the embedded topic catalogue in memory with a TTL.
// It is constructed and injected explicitly, refresh timing is therefore
// testable and there is no hidden process wide state.
//
// Topics missing a stored embedding get one computed and persisted on the
// first refresh that sees them. If the embedder is down we fall back to a
// pseudo embedding in memory only, so a later refresh can still replace it
// with the real thing.
type TopicEmbeddingCache struct {
	db       *gorm.DB
	embedder Embedder
	ttl      time.Duration

	mu        sync.RWMutex
	entries   []TopicEmbedding
	fetchedAt time.Time
}

func NewTopicEmbeddingCache(db *gorm.DB, embedder Embedder, ttl time.Duration) *TopicEmbeddingCache {
	return &TopicEmbeddingCache{db: db, embedder: embedder, ttl: ttl}
}

// Get returns the cached topic embeddings, refreshing at most once per TTL.
func (c *TopicEmbeddingCache) Get(ctx context.Context) ([]TopicEmbedding, error) {
	c.mu.RLock()
	fresh := !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl
	entries := c.entries
	c.mu.RUnlock()
	if fresh {
		return entries, nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads all topics from the DB unconditionally.
func (c *TopicEmbeddingCache) Refresh(ctx context.Context) ([]TopicEmbedding, error) {
	var topics []model.Topic
	if err := c.db.Find(&topics).Error; err != nil {
		return nil, err
	}

	entries := make([]TopicEmbedding, 0, len(topics))
	for idx := range topics {
		topic := &topics[idx]
		vec, err := model.UnmarshalEmbedding(topic.Embedding)
		if err != nil {
			Logger.Log.Error("corrupt embedding for topic ", topic.Name, ", recomputing. err: ", err)
			vec = nil
		}
		if vec == nil {
			vec = c.embedTopic(ctx, topic)
		}
		entries = append(entries, TopicEmbedding{
			TopicID:   topic.Id,
			TopicName: topic.Name,
			Vector:    vec,
		})
	}

	c.mu.Lock()
	c.entries = entries
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return entries, nil
}

func (c *TopicEmbeddingCache) embedTopic(ctx context.Context, topic *model.Topic) []float64 {
	text := topic.Name + ": " + topic.Description
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		Logger.Log.Error("fail to embed topic ", topic.Name, ", using pseudo embedding. err: ", err)
		return PseudoEmbedding(text)
	}

	// Persist so future refreshes and other processes skip the API call.
	blob, err := model.MarshalEmbedding(vec)
	if err == nil {
		if err := c.db.Model(topic).Update("embedding", blob).Error; err != nil {
			Logger.Log.Error("fail to persist embedding for topic ", topic.Name, " err: ", err)
		}
	}
	return vec
}
