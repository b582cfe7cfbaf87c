package publisher

import (
	"testing"
	"time"

	"github.com/Luismorlan/dailydrop/model"
	"github.com/stretchr/testify/assert"
)

func TestSelectDropsReturnsAllWhenUnderCap(t *testing.T) {
	candidates := []Candidate{
		{ContentID: "a", Source: model.SourceRSS, Score: 0.2},
		{ContentID: "b", Source: model.SourceRSS, Score: 0.9},
	}
	selected := selectDrops(candidates, 3)
	assert.Len(t, selected, 2)
	// sorted descending even without the heuristic
	assert.Equal(t, "b", selected[0].ContentID)
}

func TestSelectDropsNeverExceedsCap(t *testing.T) {
	candidates := []Candidate{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		candidates = append(candidates, Candidate{ContentID: id, Source: model.SourceRSS, Score: 0.5})
	}
	assert.Len(t, selectDrops(candidates, 3), 3)
}

func TestSelectDropsYouTubePriority(t *testing.T) {
	candidates := []Candidate{
		{ContentID: "rss-high", Source: model.SourceRSS, Score: 0.95},
		{ContentID: "rss-mid", Source: model.SourceRSS, Score: 0.9},
		{ContentID: "yt-low", Source: model.SourceYouTube, Score: 0.3},
		{ContentID: "yt-lower", Source: model.SourceYouTube, Score: 0.2},
		{ContentID: "reddit", Source: model.SourceReddit, Score: 0.5},
	}
	selected := selectDrops(candidates, 3)
	assert.Len(t, selected, 3)
	// the best youtube item takes the first slot despite its low score
	assert.Equal(t, "yt-low", selected[0].ContentID)
}

func TestSelectDropsPrefersSourceDiversity(t *testing.T) {
	candidates := []Candidate{
		{ContentID: "rss-1", Source: model.SourceRSS, Score: 0.9},
		{ContentID: "rss-2", Source: model.SourceRSS, Score: 0.8},
		{ContentID: "rss-3", Source: model.SourceRSS, Score: 0.7},
		{ContentID: "twitter-1", Source: model.SourceTwitter, Score: 0.4},
		{ContentID: "reddit-1", Source: model.SourceReddit, Score: 0.3},
	}
	selected := selectDrops(candidates, 3)
	assert.Len(t, selected, 3)

	sources := map[string]int{}
	for _, candidate := range selected {
		sources[candidate.Source]++
	}
	// one per distinct source wins over the second and third rss item
	assert.Equal(t, 1, sources[model.SourceRSS])
	assert.Equal(t, 1, sources[model.SourceTwitter])
	assert.Equal(t, 1, sources[model.SourceReddit])
}

func TestSelectDropsTopsUpByScoreWhenDiversityExhausted(t *testing.T) {
	candidates := []Candidate{
		{ContentID: "rss-1", Source: model.SourceRSS, Score: 0.9},
		{ContentID: "rss-2", Source: model.SourceRSS, Score: 0.8},
		{ContentID: "rss-3", Source: model.SourceRSS, Score: 0.7},
		{ContentID: "rss-4", Source: model.SourceRSS, Score: 0.6},
	}
	selected := selectDrops(candidates, 3)
	assert.Len(t, selected, 3)
	assert.Equal(t, "rss-1", selected[0].ContentID)
	assert.Equal(t, "rss-2", selected[1].ContentID)
	assert.Equal(t, "rss-3", selected[2].ContentID)
}

func TestUTCMidnight(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	ts := time.Date(2026, 8, 25, 23, 30, 0, 0, loc) // 2026-08-26 07:30 UTC
	midnight := UTCMidnight(ts)
	assert.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), midnight)
}
