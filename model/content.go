package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Content is a piece of discovered content, the central row of the system

Id: primary key, use to identify a content item
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Title: plain text title, mandatory
Description: plain text description, html already stripped by the ingester
Url: canonical link, globally unique, the primary dedup key
Guid: feed provided guid, the secondary dedup key
Source: where the item came from, one of the Source* constants below
ContentType: "article", "video", "post" etc.
Summary: 2-3 sentence summary produced by the llm, or a truncated description
		when the llm is unavailable
Embedding: serialized embedding vector, attached after classification. The
		fallback path stores a deterministic pseudo embedding so this is never
		null for classified content.
Status: moderation status, one of the Status* constants below. Ingested
		content is approved directly, user submissions start as pending.
IsSaved: bookmark carve-out, saved content is never removed by cleanup
PublishedAt: publish time claimed by the origin, may predate CreatedAt
ImageUrl: thumbnail extracted by the ingester, best effort
Metadata: per-source tagged metadata blob, see ContentMetadata

Topics: classification result, "many-to-many" relation with confidence

*/

type Content struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	Title       string
	Description string
	Url         string `gorm:"uniqueIndex"`
	Guid        string `gorm:"index"`
	Source      string `gorm:"index"`
	ContentType string
	Summary     string
	Embedding   datatypes.JSON
	Status      string `gorm:"default:pending"`
	IsSaved     bool
	PublishedAt time.Time
	ImageUrl    string
	Metadata    datatypes.JSON
	Topics      []*Topic `json:"topics" gorm:"many2many:content_topics;"`
}

const (
	SourceRSS            = "rss"
	SourceYouTube        = "youtube"
	SourceTwitter        = "twitter"
	SourceReddit         = "reddit"
	SourceUserSubmission = "user_submission"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ContentMetadata is the tagged union stored in Content.Metadata. Exactly one
// of the typed members is set, discriminated by Source.
type ContentMetadata struct {
	Source  string           `json:"source"`
	RSS     *RSSMetadata     `json:"rss,omitempty"`
	YouTube *YouTubeMetadata `json:"youtube,omitempty"`
	Social  *SocialMetadata  `json:"social,omitempty"`
}

type RSSMetadata struct {
	FeedName   string   `json:"feedName"`
	Author     string   `json:"author,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

type YouTubeMetadata struct {
	Channel   string `json:"channel"`
	ViewCount int64  `json:"viewCount"`
}

type SocialMetadata struct {
	Platform string `json:"platform"`
	Author   string `json:"author"`
	Likes    int64  `json:"likes"`
}

// MarshalMetadata serializes a tagged metadata union into the json column.
func MarshalMetadata(m ContentMetadata) (datatypes.JSON, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// UnmarshalMetadata decodes the json column back into the tagged union.
// Returns a zero value for content without metadata.
func UnmarshalMetadata(blob datatypes.JSON) (ContentMetadata, error) {
	var m ContentMetadata
	if len(blob) == 0 {
		return m, nil
	}
	err := json.Unmarshal(blob, &m)
	return m, err
}
