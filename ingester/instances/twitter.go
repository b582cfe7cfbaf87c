package instances

import (
	"github.com/Luismorlan/dailydrop/model"
)

type TwitterSource struct{}

func (TwitterSource) Platform() string { return model.SourceTwitter }

func (TwitterSource) Collect() []SocialPost {
	return []SocialPost{
		{
			Title:       "Thread: lessons from migrating 400 services to a monorepo",
			Description: "We moved 400 services into a single repository over six months. Build times, ownership, and the tooling we had to write along the way.",
			Url:         "https://twitter.com/mockeng/status/1000000000000000001",
			Author:      "@mockeng",
			Platform:    model.SourceTwitter,
			Likes:       5200,
			PublishedAt: recent(4),
		},
		{
			Title:       "Figma multiplayer internals, explained",
			Description: "How operational transforms and a custom sync server make multiplayer design editing feel instant.",
			Url:         "https://twitter.com/mockdesign/status/1000000000000000002",
			Author:      "@mockdesign",
			Platform:    model.SourceTwitter,
			Likes:       2100,
			PublishedAt: recent(12),
		},
	}
}
