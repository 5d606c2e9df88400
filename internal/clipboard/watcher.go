// Package clipboard implements the --watch-clipboard CLI feature: polling
// the system clipboard for new http(s) URLs and handing each one off as a
// download request.
package clipboard

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

const pollInterval = 1 * time.Second

// ExtractURL returns text as a clean absolute http(s) URL, or "" if text
// isn't one.
func ExtractURL(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 2048 || strings.ContainsAny(text, "\n\r") {
		return ""
	}
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return ""
	}
	parsed, err := url.Parse(text)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

// Watch polls the clipboard every second and sends each newly-seen URL on
// the returned channel, until ctx is cancelled (at which point the channel
// is closed). A URL equal to the last one reported is skipped, so the same
// URL is reported again only after a different URL was reported in between.
func Watch(ctx context.Context) <-chan string {
	urls := make(chan string)
	go func() {
		defer close(urls)
		var last string
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				text, err := clipboard.ReadAll()
				if err != nil {
					continue
				}
				u := ExtractURL(text)
				if u == "" || u == last {
					continue
				}
				last = u
				select {
				case urls <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return urls
}
