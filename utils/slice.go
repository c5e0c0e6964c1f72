package utils

// Filter keeps the items matching keep. The result is never nil.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func Map[T, U any](items []T, fn func(T) U) []U {
	out := make([]U, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

// GroupBy buckets items by key, preserving their order within each bucket.
func GroupBy[T any, K comparable](items []T, key func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		out[k] = append(out[k], item)
	}
	return out
}

// Membership builds, per key, the set of values seen with it.
// Lookups on a missing key report false.
func Membership[T any, K, V comparable](items []T, pair func(T) (K, V)) map[K]map[V]bool {
	out := make(map[K]map[V]bool)
	for _, item := range items {
		k, v := pair(item)
		if out[k] == nil {
			out[k] = make(map[V]bool)
		}
		out[k][v] = true
	}
	return out
}
