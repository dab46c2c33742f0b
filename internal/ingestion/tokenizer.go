package ingestion

import (
	"regexp"
	"strings"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

var (
	personNamePattern = regexp.MustCompile(`\(([^)]+)\)`)
	datePattern       = regexp.MustCompile(`(\d{4})[/_-](\d{2})[/_-](\d{2})`)
	// HH[:_]MM must not follow digits or date separators, so the month/day of
	// 2024_03_15 is never taken for a time. Seconds are skipped.
	timePattern     = regexp.MustCompile(`(?i)(?:^|[^\d/:_-])(\d{2})[:_](\d{2})(?::\d{2})?(?:\s*(PDT|PST|UTC|GMT|EST)\b)?(?:[^\d_]|$)`)
	companyPattern  = regexp.MustCompile(`^([^_-]*)[_-]`)
	positionPattern = regexp.MustCompile(`(?i)^(.*?)Interview\s*\(`)
)

// positionDenylist names recurring meetings that look like interviews but are not tied to a job
var positionDenylist = []string{"vinaudit", "autoscale"}

// Tokenize derives candidate tokens from an artifact display name.
// It never fails; absent segments are reported through sentinels and Found flags.
func Tokenize(displayName string) models.FilenameTokens {
	tokens := models.FilenameTokens{
		PersonName:   models.Unknown,
		Company:      models.Unknown,
		PositionHint: models.NotFound,
	}

	if m := personNamePattern.FindStringSubmatch(displayName); m != nil {
		tokens.PersonName = strings.TrimSpace(m[1])
	}

	if m := datePattern.FindStringSubmatch(displayName); m != nil {
		tokens.Date = models.DateParts{Year: m[1], Month: m[2], Day: m[3], Found: true}
	}

	if m := timePattern.FindStringSubmatch(displayName); m != nil {
		tokens.Time = models.TimeParts{Hour: m[1], Minute: m[2], Zone: strings.ToUpper(m[3]), Found: true}
	}

	if m := companyPattern.FindStringSubmatch(displayName); m != nil {
		tokens.Company = strings.TrimSpace(m[1])
	}

	tokens.PositionHint = positionHint(displayName)

	return tokens
}

func positionHint(displayName string) string {
	lower := strings.ToLower(displayName)
	for _, denied := range positionDenylist {
		if strings.Contains(lower, denied) {
			return models.NotFound
		}
	}

	m := positionPattern.FindStringSubmatch(displayName)
	if m == nil {
		return models.NotFound
	}
	hint := strings.TrimSpace(m[1])
	if hint == "" {
		return models.NotFound
	}
	return hint
}

// FormatDate renders date parts as YYYY-MM-DD, or the Unknown sentinel
func FormatDate(d models.DateParts) string {
	if !d.Found {
		return models.Unknown
	}
	return d.Year + "-" + d.Month + "-" + d.Day
}

// FormatTime renders time parts as "HH:MM TZ", dropping the zone when absent
func FormatTime(t models.TimeParts) string {
	if !t.Found {
		return models.Unknown
	}
	return strings.TrimSpace(t.Hour + ":" + t.Minute + " " + t.Zone)
}
