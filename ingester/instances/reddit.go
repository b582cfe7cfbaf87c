package instances

import (
	"github.com/Luismorlan/dailydrop/model"
)

type RedditSource struct{}

func (RedditSource) Platform() string { return model.SourceReddit }

func (RedditSource) Collect() []SocialPost {
	return []SocialPost{
		{
			Title:       "What security practices actually moved the needle at your company?",
			Description: "Discussion of phishing drills, dependency scanning and vulnerability disclosure programs that worked in practice.",
			Url:         "https://www.reddit.com/r/netsec/comments/mock_sec_practices",
			Author:      "u/mock_secops",
			Platform:    model.SourceReddit,
			Likes:       870,
			PublishedAt: recent(8),
		},
		{
			Title:       "Show r/golang: a tiny open source rate limiter with zero dependencies",
			Description: "Token bucket implementation in 200 lines, benchmarks against x/time/rate included.",
			Url:         "https://www.reddit.com/r/golang/comments/mock_rate_limiter",
			Author:      "u/mock_gopher",
			Platform:    model.SourceReddit,
			Likes:       430,
			PublishedAt: recent(26),
		},
	}
}
