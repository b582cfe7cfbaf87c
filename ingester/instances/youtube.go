package instances

import (
	"github.com/Luismorlan/dailydrop/model"
)

type YouTubeSource struct{}

func (YouTubeSource) Platform() string { return model.SourceYouTube }

func (YouTubeSource) Collect() []SocialPost {
	return []SocialPost{
		{
			Title:       "Kubernetes Explained in 100 Seconds",
			Description: "A rapid fire introduction to kubernetes, pods, deployments and services for busy engineers.",
			Url:         "https://www.youtube.com/watch?v=mock-k8s-100s",
			Author:      "Fireship Clone",
			Platform:    model.SourceYouTube,
			ViewCount:   184000,
			PublishedAt: recent(6),
		},
		{
			Title:       "Building an LLM Application From Scratch",
			Description: "Live coding a retrieval augmented generation pipeline with embeddings, a vector store and an open model.",
			Url:         "https://www.youtube.com/watch?v=mock-llm-scratch",
			Author:      "AI Engineering Weekly",
			Platform:    model.SourceYouTube,
			ViewCount:   96000,
			PublishedAt: recent(20),
		},
		{
			Title:       "Why Your Postgres Queries Are Slow",
			Description: "Reading query plans, picking the right indexes and the database mistakes everyone makes once.",
			Url:         "https://www.youtube.com/watch?v=mock-pg-slow",
			Author:      "The Data Channel",
			Platform:    model.SourceYouTube,
			ViewCount:   41000,
			PublishedAt: recent(30),
		},
	}
}
