package feedconfig

import (
	"encoding/json"
	"io/ioutil"
	"net/url"
	"sync"
	"time"

	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/pkg/errors"
)

// FeedDescriptor is one entry of the static feed catalogue, the json format
// is a flat array of these objects.
type FeedDescriptor struct {
	Name string   `json:"name"`
	Url  string   `json:"url"`
	Tags []string `json:"tags"`
}

// Loader reads the feed catalogue from disk and caches it with a staleness
// TTL. Construct one and inject it, there is intentionally no package global.
type Loader struct {
	path string
	ttl  time.Duration

	mu       sync.RWMutex
	feeds    []FeedDescriptor
	loadedAt time.Time
}

func NewLoader(path string, ttl time.Duration) *Loader {
	return &Loader{path: path, ttl: ttl}
}

// Descriptors returns the cached catalogue, reloading from disk first if the
// cache is older than the TTL or was never loaded.
func (l *Loader) Descriptors() ([]FeedDescriptor, error) {
	l.mu.RLock()
	fresh := !l.loadedAt.IsZero() && time.Since(l.loadedAt) < l.ttl
	feeds := l.feeds
	l.mu.RUnlock()
	if fresh {
		return feeds, nil
	}
	return l.Reload()
}

// Reload re-reads the catalogue from disk unconditionally. Individual invalid
// entries are skipped with a log line, a file that yields zero valid entries
// is an error.
func (l *Loader) Reload() ([]FeedDescriptor, error) {
	raw, err := ioutil.ReadFile(l.path)
	if err != nil {
		return nil, errors.Wrap(err, "fail to read feed config "+l.path)
	}

	var parsed []FeedDescriptor
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "fail to parse feed config "+l.path)
	}

	valid := make([]FeedDescriptor, 0, len(parsed))
	for _, fd := range parsed {
		if err := validateDescriptor(fd); err != nil {
			Logger.Log.Error("skip invalid feed descriptor: ", fd.Name, " err: ", err)
			continue
		}
		valid = append(valid, fd)
	}
	if len(valid) == 0 {
		return nil, errors.New("feed config contains no valid descriptor: " + l.path)
	}

	l.mu.Lock()
	l.feeds = valid
	l.loadedAt = time.Now()
	l.mu.Unlock()
	return valid, nil
}

func validateDescriptor(fd FeedDescriptor) error {
	if fd.Name == "" {
		return errors.New("empty name")
	}
	parsed, err := url.Parse(fd.Url)
	if err != nil || !parsed.IsAbs() {
		return errors.New("invalid url: " + fd.Url)
	}
	if len(fd.Tags) == 0 {
		return errors.New("at least one tag required")
	}
	return nil
}
