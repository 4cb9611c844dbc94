// Package warmer proactively primes cache entries by fetching the known feed
// URIs through the normal request path. Warming is opportunistic: failures
// are ignored, and the warmer never writes cache entries itself.
package warmer

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"feedcache/internal/common/logging"
)

const userAgent = "feedcache-warmer/1.0"

// syndicationFormats are the feed renderings the site serves.
var syndicationFormats = []string{"rss2", "atom", "rdf"}

// contentFeeds are the registered feed types per format.
var contentFeeds = []string{"posts", "comments"}

// Warmer issues best-effort GETs against the site's feed URIs.
type Warmer struct {
	client  *resty.Client
	baseURL string
	logger  logging.Logger
}

// New creates a warmer targeting baseURL with a bounded per-request timeout.
func New(baseURL string, timeout time.Duration, logger logging.Logger) *Warmer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)

	return &Warmer{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// FeedURIs builds the list of known feed URIs: every syndication format for
// every registered content feed.
func (w *Warmer) FeedURIs() []string {
	uris := make([]string, 0, len(syndicationFormats)*len(contentFeeds))
	for _, format := range syndicationFormats {
		for _, feed := range contentFeeds {
			switch feed {
			case "posts":
				uris = append(uris, w.baseURL+"/feed/"+format)
			default:
				uris = append(uris, w.baseURL+"/feed/"+format+"/"+feed)
			}
		}
	}
	return uris
}

// Warm fetches every known feed URI, discarding responses. It returns the
// number of URIs attempted; fetch failures are logged and ignored since
// warming has no success contract.
func (w *Warmer) Warm(ctx context.Context) int {
	uris := w.FeedURIs()
	for _, uri := range uris {
		if _, err := w.client.R().SetContext(ctx).Get(uri); err != nil {
			w.logger.Debug("warming fetch failed", logging.String("uri", uri), logging.Err(err))
		}
	}
	w.logger.Info("cache warming pass finished", logging.Int("uris", len(uris)))
	return len(uris)
}
