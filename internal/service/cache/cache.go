package cache

import drepo "PriceCast/internal/domain/repository"

// BytesCache is the cache contract both implementations satisfy.
type BytesCache = drepo.BytesCache

// Key joins cache key parts with ':'.
func Key(parts ...string) string {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, ':')
		}
		b = append(b, p...)
	}
	return string(b)
}
