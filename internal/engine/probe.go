package engine

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/alter-dl/alter/internal/filename"
)

// probeResult is what the HEAD-then-GET probe learns about a resource: its
// size, whether the server honors Range, and (when the task was
// auto-named) an upgraded output path from Content-Disposition.
type probeResult struct {
	Total         *int64
	SupportsRange bool
	Output        string
	Name          string
	Upgraded      bool
}

// runProbe issues HEAD (following redirects, as http.Client does by
// default) then falls back to GET on transport error or a non-2xx status.
// Either response is inspected for Content-Length, Accept-Ranges, and —
// when autoNamed — Content-Disposition.
func runProbe(ctx context.Context, client *http.Client, rawURL, currentOutput string, autoNamed bool, rc *RuntimeConfig) probeResult {
	if resp, err := doProbeRequest(ctx, client, http.MethodHead, rawURL, rc); err == nil {
		defer resp.Body.Close()
		if is2xx(resp.StatusCode) {
			return extractProbeResult(resp, currentOutput, autoNamed)
		}
	}

	resp, err := doProbeRequest(ctx, client, http.MethodGet, rawURL, rc)
	if err != nil || !is2xx(resp.StatusCode) {
		if resp != nil {
			resp.Body.Close()
		}
		return probeResult{Output: currentOutput, Name: currentOutput}
	}
	defer resp.Body.Close()
	return extractProbeResult(resp, currentOutput, autoNamed)
}

func doProbeRequest(ctx context.Context, client *http.Client, method, rawURL string, rc *RuntimeConfig) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.GetUserAgent())
	return client.Do(req)
}

func extractProbeResult(resp *http.Response, currentOutput string, autoNamed bool) probeResult {
	result := probeResult{Output: currentOutput, Name: currentOutput}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n >= 0 {
			result.Total = &n
		}
	}
	result.SupportsRange = strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes")

	if autoNamed {
		if out, name, ok := filename.UpgradeFromHeaders(currentOutput, resp.Header); ok {
			result.Output, result.Name, result.Upgraded = out, name, true
		}
	}
	return result
}

func is2xx(status int) bool { return status >= 200 && status < 300 }
