// Package keys maps transcript object keys to their rendered document keys
// and to timetable categories.
package keys

import (
	"path"
	"strconv"
	"strings"
	"time"

	"lecturepdf/internal/domain"
)

const (
	segmentDelimiter = "_"
	timestampSegment = 1
)

// DeriveTargetKey returns the rendered document key for a transcript key.
// Folder prefixes are dropped. A key without the source extension keeps its
// whole basename.
func DeriveTargetKey(sourceKey string) string {
	base := path.Base(sourceKey)
	base = strings.TrimSuffix(base, domain.SourceExtension)
	return base + domain.TargetExtension
}

// FileName returns the last path segment of a key or URL.
func FileName(key string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

// ExtractHour reads the epoch-millisecond timestamp from the second
// "_"-delimited segment of fileName and returns its hour of day in loc.
func ExtractHour(fileName string, loc *time.Location) (int, bool) {
	parts := strings.Split(fileName, segmentDelimiter)
	if len(parts) <= timestampSegment {
		return 0, false
	}

	raw, _, _ := strings.Cut(parts[timestampSegment], ".")
	if raw == "" {
		return 0, false
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(millis).In(loc).Hour(), true
}

// Categorize returns the label of the first slot containing hour. Overlaps
// are not checked.
func Categorize(hour int, ok bool, schedule []domain.ScheduleSlot) string {
	if !ok {
		return domain.CategoryFallback
	}
	for _, slot := range schedule {
		if slot.StartHour <= hour && hour < slot.EndHour {
			return slot.Label
		}
	}
	return domain.CategoryFallback
}

// CategoryFor is Categorize(ExtractHour(fileName)).
func CategoryFor(fileName string, schedule []domain.ScheduleSlot, loc *time.Location) string {
	hour, ok := ExtractHour(fileName, loc)
	return Categorize(hour, ok, schedule)
}
