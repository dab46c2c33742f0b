package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

func TestTokenizeConventionalName(t *testing.T) {
	tokens := Tokenize("Acme Corp Engineer Interview (Jane Doe) 2024_03_15 14_30 PDT")

	assert.Equal(t, "Jane Doe", tokens.PersonName)
	// company stops at the first literal separator, which sits inside the date
	assert.Equal(t, "Acme Corp Engineer Interview (Jane Doe) 2024", tokens.Company)
	assert.Equal(t, models.DateParts{Year: "2024", Month: "03", Day: "15", Found: true}, tokens.Date)
	assert.Equal(t, models.TimeParts{Hour: "14", Minute: "30", Zone: "PDT", Found: true}, tokens.Time)
	assert.Equal(t, "Acme Corp Engineer", tokens.PositionHint)

	assert.Equal(t, "2024-03-15", FormatDate(tokens.Date))
	assert.Equal(t, "14:30 PDT", FormatTime(tokens.Time))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name         string
		displayName  string
		personName   string
		company      string
		date         string
		time         string
		positionHint string
	}{
		{
			name:         "empty name",
			displayName:  "",
			personName:   models.Unknown,
			company:      models.Unknown,
			date:         models.Unknown,
			time:         models.Unknown,
			positionHint: models.NotFound,
		},
		{
			name:         "dash separator before date",
			displayName:  "Globex - Backend Interview (John Smith) 2023-11-02 09:05 utc",
			personName:   "John Smith",
			company:      "Globex",
			date:         "2023-11-02",
			time:         "09:05 UTC",
			positionHint: "Globex - Backend",
		},
		{
			name:         "slash date and no zone",
			displayName:  "Initech Interview (Ann Lee) 2022/01/31 17:45",
			personName:   "Ann Lee",
			company:      models.Unknown,
			date:         "2022-01-31",
			time:         "17:45",
			positionHint: "Initech",
		},
		{
			name:         "lowercase interview keyword with extra spaces",
			displayName:  "Data Analyst interview   (Bo Chen)",
			personName:   "Bo Chen",
			company:      models.Unknown,
			date:         models.Unknown,
			time:         models.Unknown,
			positionHint: "Data Analyst",
		},
		{
			name:         "notes by gemini suffix",
			displayName:  "Acme Interview (Jane) - Notes by Gemini",
			personName:   "Jane",
			company:      "Acme Interview (Jane)",
			date:         models.Unknown,
			time:         models.Unknown,
			positionHint: "Acme",
		},
		{
			name:         "empty parentheses are skipped",
			displayName:  "Weekly sync () (Dana Roe)",
			personName:   "Dana Roe",
			company:      models.Unknown,
			date:         models.Unknown,
			time:         models.Unknown,
			positionHint: models.NotFound,
		},
		{
			name:         "time with seconds",
			displayName:  "Acme Interview (Jane) 14:30:00",
			personName:   "Jane",
			company:      models.Unknown,
			date:         models.Unknown,
			time:         "14:30",
			positionHint: "Acme",
		},
		{
			name:         "time with seconds and zone",
			displayName:  "Acme Interview (Jane) 2024-03-15 09:05:59 pst",
			personName:   "Jane",
			company:      "Acme Interview (Jane) 2024",
			date:         "2024-03-15",
			time:         "09:05 PST",
			positionHint: "Acme",
		},
		{
			name:         "interview keyword with nothing before it",
			displayName:  "Interview (Jane Doe)",
			personName:   "Jane Doe",
			company:      models.Unknown,
			date:         models.Unknown,
			time:         models.Unknown,
			positionHint: models.NotFound,
		},
		{
			name:         "date without time is not read as a time",
			displayName:  "Sync 2024_03_15",
			personName:   models.Unknown,
			company:      "Sync 2024",
			date:         "2024-03-15",
			time:         models.Unknown,
			positionHint: models.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.displayName)
			assert.Equal(t, tt.personName, tokens.PersonName)
			assert.Equal(t, tt.company, tokens.Company)
			assert.Equal(t, tt.date, FormatDate(tokens.Date))
			assert.Equal(t, tt.time, FormatTime(tokens.Time))
			assert.Equal(t, tt.positionHint, tokens.PositionHint)
		})
	}
}

func TestTokenizeDenylistForcesNotFound(t *testing.T) {
	names := []string{
		"VinAudit Engineer Interview (Jane Doe)",
		"Sales Interview (Bob) vinaudit weekly",
		"AUTOSCALE Platform Interview (Kim)",
		"Ops autoscale review Interview (Lee) 2024_01_02",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, models.NotFound, Tokenize(name).PositionHint)
		})
	}
}

func FuzzTokenize(f *testing.F) {
	f.Add("Acme Corp Engineer Interview (Jane Doe) 2024_03_15 14_30 PDT")
	f.Add("(((")
	f.Add("_-_-")
	f.Add("2024_03_15 14:30:00 GMT")
	f.Add("\xff\xfe Interview (")

	f.Fuzz(func(t *testing.T, name string) {
		tokens := Tokenize(name)
		if tokens.Company == "" && !companyPattern.MatchString(name) {
			t.Fatalf("company left empty for %q", name)
		}
		if tokens.PositionHint == "" && !positionPattern.MatchString(name) {
			t.Fatalf("position hint left empty for %q", name)
		}
		if FormatDate(tokens.Date) == "" || FormatTime(tokens.Time) == "" {
			t.Fatalf("empty date or time rendering for %q", name)
		}
	})
}
