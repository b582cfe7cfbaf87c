package classifier

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand"
	"os"

	"github.com/Luismorlan/dailydrop/utils"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// Dimension of text-embedding-3-small, the pseudo embedding fallback uses
	// the same dimension so both kinds can be compared storage side by side.
	EmbeddingDim = 1536

	// Embedding input is truncated to this many characters before the call.
	maxEmbeddingInputChars = 2000
)

// Embedder produces a vector for a piece of text. The production
// implementation calls the OpenAI embedding endpoint, tests inject fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatCompleter produces a free form completion, used for article summaries.
type ChatCompleter interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

// OpenAIClient implements both Embedder and ChatCompleter against the OpenAI
// API. Calls are paced by a token bucket limiter instead of fixed sleeps so a
// burst of batches cannot exceed the account rate limit.
type OpenAIClient struct {
	client  openai.Client
	limiter *rate.Limiter
}

func NewOpenAIClient(rps float64) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(os.Getenv("OPENAI_API_KEY"))),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	response, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModelTextEmbedding3Small,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(TruncateText(text, maxEmbeddingInputChars)),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai embedding request failed")
	}
	if len(response.Data) == 0 {
		return nil, errors.New("no embedding in openai response")
	}
	return response.Data[0].Embedding, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system string, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: "gpt-4o-mini",
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(user),
					},
				},
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(300),
	})
	if err != nil {
		return "", errors.Wrap(err, "openai chat request failed")
	}
	if len(response.Choices) == 0 {
		return "", errors.New("no choice in openai response")
	}
	return response.Choices[0].Message.Content, nil
}

// PseudoEmbedding derives a deterministic unit vector from the text's md5
// digest. It carries no semantics, it only guarantees that (a) the same text
// always maps to the same vector and (b) classified content never has a null
// embedding column, which downstream ranking relies on.
func PseudoEmbedding(text string) []float64 {
	digest := utils.TextToMd5Hash(TruncateText(text, maxEmbeddingInputChars))
	seed := int64(binary.BigEndian.Uint64([]byte(digest)[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float64, EmbeddingDim)
	var norm float64
	for idx := range vec {
		vec[idx] = rng.NormFloat64()
		norm += vec[idx] * vec[idx]
	}
	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

// TruncateText cuts text to at most max characters without splitting runes.
func TruncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
