package imagemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Provider resolves image paths for product keys when no local master table
// is available. Resolution is best-effort: keys that cannot be resolved are
// simply absent from the returned map.
type Provider interface {
	Resolve(ctx context.Context, keys []string) Map
}

// FetcherConfig controls the remote HTML fetch provider.
type FetcherConfig struct {
	// URLTemplate is the product page URL with %s in place of the key.
	URLTemplate string
	// Workers bounds concurrent fetches. Defaults to 8.
	Workers int
	// Timeout bounds each individual fetch. Defaults to 5s.
	Timeout time.Duration
}

// Fetcher scrapes product pages for their og:image reference. A failed or
// slow fetch for one key never fails the batch.
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
}

func NewFetcher(cfg FetcherConfig, client *http.Client) *Fetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{cfg: cfg, client: client}
}

var ogImageRe = regexp.MustCompile(`<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`)

// Resolve fetches the page for every key through a bounded worker pool and
// extracts the og:image URL. The result map only holds keys that resolved.
func (f *Fetcher) Resolve(ctx context.Context, keys []string) Map {
	result := make(Map, len(keys))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)

	for _, key := range keys {
		key := strings.TrimSpace(key)
		if key == "" {
			continue
		}
		g.Go(func() error {
			url, err := f.fetchOne(ctx, key)
			if err != nil {
				log.Debug().Err(err).Str("key", key).Msg("image fetch failed")
				return nil // isolated: never abort the batch
			}
			mu.Lock()
			result[key] = url
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return result
}

func (f *Fetcher) fetchOne(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	url := fmt.Sprintf(f.cfg.URLTemplate, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	// Product pages are small; 1MB is plenty for the head metadata.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	m := ogImageRe.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no og:image on page for key %s", key)
	}
	return string(m[1]), nil
}

var _ Provider = (*Fetcher)(nil)
