package utils

import (
	"context"
	"strings"
	"time"
	"unicode"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// SplitCSV splits a comma separated list, trimming items and dropping empty ones.
func SplitCSV(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest. Words are separated by spaces and hyphens, so "semi-senior" becomes
// "Semi-Senior".
func TitleCase(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	start := true
	for i, r := range runes {
		if r == ' ' || r == '-' || r == '\t' {
			start = true
			continue
		}
		if start {
			runes[i] = unicode.ToUpper(r)
			start = false
			continue
		}
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}
