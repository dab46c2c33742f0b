package ingestion

import (
	"regexp"
	"strings"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// section describes one marker-delimited block of meeting notes. The block
// starts after the first occurrence of start and runs to the earliest
// following terminator, or to the end of the text.
type section struct {
	start    *regexp.Regexp
	end      *regexp.Regexp
	sentinel string
}

var (
	summarySection = section{
		start:    regexp.MustCompile(`(?i)Summary`),
		end:      regexp.MustCompile(`(?i)Details|Professional`),
		sentinel: models.NoSummaryFound,
	}
	detailsSection = section{
		start:    regexp.MustCompile(`(?i)Details`),
		end:      regexp.MustCompile(`(?i)Suggested next steps|📖 Transcript`),
		sentinel: models.NoDetailsFound,
	}
	nextStepsSection = section{
		start:    regexp.MustCompile(`(?i)Suggested next steps`),
		end:      regexp.MustCompile(`(?i)📖 Transcript`),
		sentinel: models.NoNextStepsFound,
	}
	transcriptSection = section{
		start:    regexp.MustCompile(`(?i)Transcript`),
		end:      regexp.MustCompile(`(?i)Summary`),
		sentinel: models.NoTranscriptFound,
	}
)

func (s section) extract(content string) string {
	loc := s.start.FindStringIndex(content)
	if loc == nil {
		return s.sentinel
	}
	rest := content[loc[1]:]
	if end := s.end.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}

// ParseFields merges filename tokens and note content into candidate fields.
// Name, company, position, date and time come only from the tokens; email
// and the note sections come only from the content. It never fails.
func ParseFields(content string, tokens models.FilenameTokens) models.ParsedFields {
	fields := models.ParsedFields{
		CandidateName: tokens.PersonName,
		Company:       tokens.Company,
		PositionMatch: tokens.PositionHint,
		InterviewDate: FormatDate(tokens.Date),
		InterviewTime: FormatTime(tokens.Time),
		Email:         models.Unknown,
	}

	if strings.TrimSpace(content) == "" {
		fields.Summary = models.NoSummaryFound
		fields.Details = models.NoDetailsFound
		fields.NextSteps = models.NoNextStepsFound
		fields.Transcript = models.NoTranscriptFound
		fields.Content = models.NoContentFound
		return fields
	}

	if email := emailPattern.FindString(content); email != "" {
		fields.Email = email
	}

	fields.Summary = summarySection.extract(content)
	fields.Details = detailsSection.extract(content)
	fields.NextSteps = nextStepsSection.extract(content)
	fields.Transcript = transcriptSection.extract(content)
	fields.Content = content

	return fields
}
