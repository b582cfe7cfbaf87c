package ingester

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Luismorlan/dailydrop/feedconfig"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
)

const (
	feedFetchTimeout = 10 * time.Second
	feedUserAgent    = "dailydrop-ingester/1.0"
)

// Article is the canonical normalized record produced from one feed item.
// Title and Url are mandatory, items lacking either are dropped upstream.
type Article struct {
	Title       string
	Description string
	Url         string
	PublishedAt time.Time
	Guid        string
	Author      string
	Categories  []string
	Content     string
	ImageUrl    string
}

// FeedResult is the per-feed outcome of a batch parse. Err is set for
// feed-level failures (unreachable, malformed), per-item problems only shrink
// Articles.
type FeedResult struct {
	Feed     feedconfig.FeedDescriptor
	Articles []Article
	Err      error
}

// RssParser fetches and normalizes RSS/Atom feeds.
type RssParser struct {
	client *http.Client
	parser *gofeed.Parser

	// Feeds fetched in parallel within one batch, and the politeness pause
	// between batches.
	Concurrency int
	BatchDelay  time.Duration
}

func NewRssParser(concurrency int, batchDelay time.Duration) *RssParser {
	return &RssParser{
		client:      &http.Client{Timeout: feedFetchTimeout},
		parser:      gofeed.NewParser(),
		Concurrency: concurrency,
		BatchDelay:  batchDelay,
	}
}

// ParseFeed fetches one feed and maps every usable item to an Article.
func (p *RssParser) ParseFeed(ctx context.Context, fd feedconfig.FeedDescriptor) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fd.Url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fail to build feed request "+fd.Url)
	}
	req.Header.Set("User-Agent", feedUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fail to fetch feed "+fd.Url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("feed %s returned status %d", fd.Url, resp.StatusCode)
	}

	parsed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "fail to parse feed "+fd.Url)
	}

	articles := []Article{}
	for _, item := range parsed.Items {
		article, ok := normalizeItem(item, parsed)
		if !ok {
			// Silently dropped per contract, a title-less or link-less item
			// cannot be deduped or rendered.
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// ParseFeeds parses all feeds with a concurrency cap and a fixed delay
// between batches. Partial failures are collected per feed, the batch always
// runs to completion.
func (p *RssParser) ParseFeeds(ctx context.Context, feeds []feedconfig.FeedDescriptor) []FeedResult {
	results := make([]FeedResult, len(feeds))

	for start := 0; start < len(feeds); start += p.Concurrency {
		end := start + p.Concurrency
		if end > len(feeds) {
			end = len(feeds)
		}

		var wg sync.WaitGroup
		for idx := start; idx < end; idx++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				articles, err := p.ParseFeed(ctx, feeds[i])
				if err != nil {
					Logger.Log.Error("fail to parse feed ", feeds[i].Name, ": ", err)
				}
				results[i] = FeedResult{Feed: feeds[i], Articles: articles, Err: err}
			}(idx)
		}
		wg.Wait()

		if end < len(feeds) {
			time.Sleep(p.BatchDelay)
		}
	}
	return results
}

// normalizeItem maps a gofeed item onto the canonical Article. Returns false
// for items missing the mandatory title or link.
func normalizeItem(item *gofeed.Item, feed *gofeed.Feed) (Article, bool) {
	title := NormalizeText(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return Article{}, false
	}

	article := Article{
		Title:       title,
		Description: NormalizeText(item.Description),
		Url:         link,
		Guid:        item.GUID,
		Categories:  item.Categories,
		Content:     item.Content,
		PublishedAt: itemPublishTime(item),
		ImageUrl:    extractImageUrl(item, feed),
	}
	if item.Author != nil {
		article.Author = item.Author.Name
	}
	return article, true
}

func itemPublishTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	// Some feeds put unparseable vendor formats in the raw field, give
	// dateparse a chance before defaulting to now.
	if item.Published != "" {
		if ts, err := dateparse.ParseAny(item.Published); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}

// extractImageUrl tries the vendor-specific image locations in a fixed order,
// first match wins: media:content / media:thumbnail, an image enclosure, the
// first <img> in the html content, the generic item image, the itunes image.
func extractImageUrl(item *gofeed.Item, feed *gofeed.Feed) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, entry := range media[key] {
				if url := entry.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	if url := firstImgSrc(item.Content); url != "" {
		return url
	}
	if url := firstImgSrc(item.Description); url != "" {
		return url
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if item.ITunesExt != nil && item.ITunesExt.Image != "" {
		return item.ITunesExt.Image
	}
	return ""
}

// firstImgSrc returns the src of the first <img> element in an html fragment.
func firstImgSrc(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// NormalizeText strips html tags and collapses whitespace.
func NormalizeText(raw string) string {
	text := raw
	if strings.Contains(raw, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}
