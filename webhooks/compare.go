package webhooks

import "strings"

// SecureCompare reports whether a and b are equal. Inputs of different length
// return false without inspecting bytes; otherwise every byte is visited.
func SecureCompare(a string, b string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func firstHeader(headers map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := headerValue(headers, key); value != "" {
			return value
		}
	}
	return ""
}
