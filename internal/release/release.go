// Package release resolves the codename of the current Debian stable
// release from the archive metadata.
package release

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultURL is the Release file of the Debian stable distribution.
const DefaultURL = "http://ftp.debian.org/debian/dists/stable/Release"

// Resolver looks up the stable codename over HTTP with a configured
// fallback for offline or broken-mirror situations.
type Resolver struct {
	client   *http.Client
	url      string
	fallback string
	log      *zap.Logger
}

// NewResolver builds a Resolver. An empty url selects DefaultURL; timeout
// bounds the whole lookup.
func NewResolver(url, fallback string, timeout time.Duration, log *zap.Logger) *Resolver {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		client:   &http.Client{Timeout: timeout},
		url:      url,
		fallback: fallback,
		log:      log,
	}
}

// StableCodename returns the codename advertised by the archive, or the
// configured fallback when the lookup fails for any reason.
func (r *Resolver) StableCodename(ctx context.Context) string {
	codename, err := r.fetch(ctx)
	if err != nil {
		r.log.Warn("stable release lookup failed, using fallback",
			zap.String("fallback", r.fallback),
			zap.Error(err))
		return r.fallback
	}
	r.log.Debug("resolved stable release", zap.String("codename", codename))
	return codename
}

func (r *Resolver) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("release file fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release file fetch returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "Codename:"); ok {
			codename := strings.TrimSpace(v)
			if codename == "" {
				return "", fmt.Errorf("empty Codename field in %s", r.url)
			}
			return codename, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read release file: %w", err)
	}
	return "", fmt.Errorf("no Codename field in %s", r.url)
}
