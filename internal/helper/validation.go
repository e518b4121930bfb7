package helper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"newsx/domain"
)

// ValidateFeedURL checks that feedURL is an absolute http(s) URL with a host.
func ValidateFeedURL(feedURL string) error {
	if feedURL == "" {
		return fmt.Errorf("%w: empty feed URL", domain.ErrInvalidInput)
	}
	u, err := url.ParseRequestURI(feedURL)
	if err != nil {
		return fmt.Errorf("%w: invalid feed URL: %v", domain.ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme: %s", domain.ErrInvalidInput, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %s", domain.ErrInvalidInput, feedURL)
	}
	return nil
}

// CheckReachable validates feedURL and performs one GET against it.
func CheckReachable(ctx context.Context, client domain.Fetcher, feedURL string) error {
	if err := ValidateFeedURL(feedURL); err != nil {
		return err
	}
	if _, err := client.GetWithTimeout(ctx, feedURL, 5*time.Second); err != nil {
		return fmt.Errorf("could not reach URL: %w", err)
	}
	return nil
}
