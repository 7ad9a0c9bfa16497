package provisioning

import "unicode/utf8"

const truncatedSuffix = " [truncated]"

// clipMessage bounds a provider message so one verbose Graph error cannot blow up
// the result log. The cut lands on a rune boundary.
func clipMessage(err error, maxBytes int) string {
	if err == nil || maxBytes <= 0 {
		return ""
	}
	msg := err.Error()
	if len(msg) <= maxBytes {
		return msg
	}
	keep := maxBytes - len(truncatedSuffix)
	if keep <= 0 {
		return msg[:runeBoundary(msg, maxBytes)]
	}
	return msg[:runeBoundary(msg, keep)] + truncatedSuffix
}

func runeBoundary(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
