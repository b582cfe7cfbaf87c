// Package instances holds the mocked social media sources. Each source
// produces static simulated posts tagged by platform, feeding the exact same
// storage path as RSS content. Swapping one for a real API client later only
// means reimplementing Collect.
package instances

import (
	"time"

	"github.com/Luismorlan/dailydrop/model"
)

// SocialPost is one simulated post from a social platform.
type SocialPost struct {
	Title       string
	Description string
	Url         string
	Author      string
	Platform    string
	Likes       int64
	ViewCount   int64
	PublishedAt time.Time
}

// SocialSource is a mocked platform producing posts.
type SocialSource interface {
	Platform() string
	Collect() []SocialPost
}

// AllSources returns every mocked platform, in the order the admin "ingest
// social-media" endpoint runs them.
func AllSources() []SocialSource {
	return []SocialSource{
		YouTubeSource{},
		TwitterSource{},
		RedditSource{},
	}
}

// SourceFor returns the mocked source for a platform name, nil for unknown.
func SourceFor(platform string) SocialSource {
	switch platform {
	case model.SourceYouTube:
		return YouTubeSource{}
	case model.SourceTwitter:
		return TwitterSource{}
	case model.SourceReddit:
		return RedditSource{}
	default:
		return nil
	}
}

// recent fakes a publish timestamp a few hours in the past so the mocked
// posts always pass the ingestion freshness filter.
func recent(hoursAgo int) time.Time {
	return time.Now().UTC().Add(-time.Duration(hoursAgo) * time.Hour)
}
