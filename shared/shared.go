package shared

import "strings"

const cacheKeySeparator = ":"

// BuildCacheKey joins the non-empty parts into a colon separated cache key.
func BuildCacheKey(parts ...string) string {
	filtered := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		filtered = append(filtered, part)
	}

	return strings.Join(filtered, cacheKeySeparator)
}
