package utils

func Ptr[T any](v T) *T {
	return &v
}

// Unique keeps the first occurrence of every value, preserving order.
func Unique[T comparable](src []T) []T {
	seen := make(map[T]struct{}, len(src))
	dst := make([]T, 0, len(src))
	for _, item := range src {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}
