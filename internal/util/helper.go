package util

import "strings"

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// FormatHex renders data as colon separated upper-case hex pairs, e.g. "0F:01:FA".
func FormatHex(data []byte) string {
	const digits = "0123456789ABCDEF"

	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteByte(digits[b>>4])
		sb.WriteByte(digits[b&0x0F])
	}

	return sb.String()
}

// CString returns the bytes of data up to, not including, the first zero byte.
func CString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}

	return string(data)
}
