// Package slug derives the unique URL identifiers used for every piece
// of addressable content on the site. A slug is the normalised display
// name joined with the first eight characters of the record's UUID;
// residual collisions get an incrementing numeric suffix. Slugs are
// assigned once and never recomputed.
package slug

import (
	"context"
	"fmt"

	gslug "github.com/gosimple/slug"
)

// ExistsFunc reports whether a candidate slug is already taken. It is a
// best-effort pre-check; the storage layer's unique index remains the
// final authority under concurrent creates.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// maxAttempts bounds the numeric-suffix retry loop.
const maxAttempts = 1000

// Generate builds a unique slug for the given display name and stable id.
// The first candidate is always base-uuidprefix; numeric suffixes are
// only tried after that collides.
func Generate(ctx context.Context, displayName, stableID string, exists ExistsFunc) (string, error) {
	base := gslug.Make(displayName)
	if base == "" {
		// Normalisation can swallow the whole name (e.g. all symbols);
		// fall back to the stable id so the slug is never empty.
		base = stableID
	}

	prefix := stableID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	candidate := fmt.Sprintf("%s-%s", base, prefix)

	if exists == nil {
		return candidate, nil
	}

	taken, err := exists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}

	original := candidate
	for i := 1; i <= maxAttempts; i++ {
		candidate = fmt.Sprintf("%s-%d", original, i)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", original, maxAttempts)
}
