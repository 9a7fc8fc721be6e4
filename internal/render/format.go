package render

import (
	"time"
	"unicode/utf8"
)

const ellipsis = "…"

// FormatHash keeps the first chars characters of a hash. Hashes read from
// exported files are not trusted to be hex.
func FormatHash(hash string, chars int) string {
	return truncate(hash, chars)
}

// FormatTimestamp renders epoch milliseconds in local time.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format(time.DateTime)
}

// TruncateData shortens free text to max runes.
func TruncateData(data string, max int) string {
	return truncate(data, max)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + ellipsis
}
