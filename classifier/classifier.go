package classifier

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"gonum.org/v1/gonum/floats"
)

const (
	// At most this many topic labels per article.
	MaxLabels = 5

	summarySystemPrompt = "You summarize tech articles. Reply with a plain 2-3 sentence summary, no preamble."

	// Description truncation length when the llm summary is unavailable.
	summaryFallbackChars = 300
)

// Input is the classifiable part of an article.
type Input struct {
	Title       string
	Description string
	Categories  []string
}

// Classification is one topic label with its confidence.
type Classification struct {
	TopicID    string
	TopicName  string
	Confidence float64
}

// Result is the full classification outcome for one article. IsFallback marks
// results produced by the keyword rules and/or a pseudo embedding after an
// embedding API failure.
type Result struct {
	Embedding       []float64
	Classifications []Classification
	IsFallback      bool
}

// TopicProvider is the slice of the topic embedding cache the classifier
// needs, kept as an interface so tests can inject failing catalogues.
type TopicProvider interface {
	Get(ctx context.Context) ([]TopicEmbedding, error)
}

// Classifier labels articles with topics. The happy path embeds the article
// and ranks it against the cached topic embeddings by cosine similarity, the
// degraded path substitutes a deterministic pseudo embedding plus keyword
// rules so ingestion keeps making progress during quota exhaustion.
type Classifier struct {
	embedder  Embedder
	completer ChatCompleter
	cache     TopicProvider

	// Cosine floor for a label to count, defaults come from app settings.
	Threshold float64
	BatchSize int
	Pause     time.Duration
}

func NewClassifier(embedder Embedder, completer ChatCompleter, cache TopicProvider, threshold float64, batchSize int, pause time.Duration) *Classifier {
	return &Classifier{
		embedder:  embedder,
		completer: completer,
		cache:     cache,
		Threshold: threshold,
		BatchSize: batchSize,
		Pause:     pause,
	}
}

func (c *Classifier) classifiableText(input Input) string {
	parts := []string{input.Title, input.Description}
	parts = append(parts, input.Categories...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Classify produces an embedding and up to MaxLabels topic labels for one
// article, never returning an empty label set.
func (c *Classifier) Classify(ctx context.Context, input Input) (Result, error) {
	text := c.classifiableText(input)

	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		Logger.Log.Error("embedding failed, falling back to keyword rules: ", err)
		return c.fallbackResult(ctx, text), nil
	}

	topics, err := c.cache.Get(ctx)
	if err != nil {
		return Result{}, err
	}

	classifications := rankTopics(embedding, topics, c.Threshold)
	if len(classifications) == 0 {
		// Real embedding but nothing above threshold: keep the embedding, let
		// the keyword rules supply the labels.
		result := Result{Embedding: embedding, IsFallback: true}
		result.Classifications = c.resolveRuleMatches(MatchKeywords(text, MaxLabels), topics)
		return result, nil
	}

	return Result{Embedding: embedding, Classifications: classifications}, nil
}

func (c *Classifier) fallbackResult(ctx context.Context, text string) Result {
	result := Result{
		Embedding:  PseudoEmbedding(text),
		IsFallback: true,
	}
	topics, err := c.cache.Get(ctx)
	if err != nil {
		Logger.Log.Error("topic cache unavailable during fallback classification: ", err)
		topics = nil
	}
	result.Classifications = c.resolveRuleMatches(MatchKeywords(text, MaxLabels), topics)
	return result
}

// resolveRuleMatches maps rule matches (by topic name) onto topic ids. Matches
// for names missing from the catalogue are dropped.
func (c *Classifier) resolveRuleMatches(matches []RuleMatch, topics []TopicEmbedding) []Classification {
	byName := make(map[string]string, len(topics))
	for _, topic := range topics {
		byName[topic.TopicName] = topic.TopicID
	}

	classifications := []Classification{}
	for _, match := range matches {
		id, ok := byName[match.TopicName]
		if !ok {
			continue
		}
		classifications = append(classifications, Classification{
			TopicID:    id,
			TopicName:  match.TopicName,
			Confidence: match.Confidence,
		})
	}
	return classifications
}

// Summarize asks the llm for a 2-3 sentence summary, degrading to a truncated
// description on any failure.
func (c *Classifier) Summarize(ctx context.Context, title string, description string) string {
	summary, err := c.completer.Complete(ctx, summarySystemPrompt, "Title: "+title+"\n\n"+description)
	if err != nil || strings.TrimSpace(summary) == "" {
		return TruncateText(description, summaryFallbackChars)
	}
	return strings.TrimSpace(summary)
}

// ClassifyBatch classifies inputs in groups of BatchSize with a pause between
// groups. A failed item is logged and excluded from the result map, it never
// aborts the batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, inputs []Input) map[int]Result {
	results := make(map[int]Result)
	var mu sync.Mutex

	for start := 0; start < len(inputs); start += c.BatchSize {
		end := start + c.BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		var wg sync.WaitGroup
		for idx := start; idx < end; idx++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := c.Classify(ctx, inputs[i])
				if err != nil {
					Logger.Log.Error("fail to classify article '", inputs[i].Title, "': ", err)
					return
				}
				mu.Lock()
				results[i] = result
				mu.Unlock()
			}(idx)
		}
		wg.Wait()

		if end < len(inputs) {
			time.Sleep(c.Pause)
		}
	}
	return results
}

// rankTopics returns topics whose cosine similarity with the embedding is at
// least threshold, sorted descending, capped at MaxLabels.
func rankTopics(embedding []float64, topics []TopicEmbedding, threshold float64) []Classification {
	classifications := []Classification{}
	for _, topic := range topics {
		similarity := CosineSimilarity(embedding, topic.Vector)
		if similarity >= threshold {
			classifications = append(classifications, Classification{
				TopicID:    topic.TopicID,
				TopicName:  topic.TopicName,
				Confidence: similarity,
			})
		}
	}
	sort.Slice(classifications, func(i, j int) bool {
		return classifications[i].Confidence > classifications[j].Confidence
	})
	if len(classifications) > MaxLabels {
		classifications = classifications[:MaxLabels]
	}
	return classifications
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// for mismatched or zero length input.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	normA := math.Sqrt(floats.Dot(a, a))
	normB := math.Sqrt(floats.Dot(b, b))
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
