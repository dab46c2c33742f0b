package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

func sampleViews() []models.CandidateView {
	link := "https://drive.google.com/file/d/rec-1/view"
	recID := "rec-1"
	verdict := models.Record(map[string]models.Value{"verdict": models.Leaf("hire")})
	return []models.CandidateView{
		{
			ID:     "notes-1",
			Status: models.StatusPass,
			ParsedFields: models.ParsedFields{
				CandidateName: "Jane Doe",
				Company:       "Acme",
				PositionMatch: "Engineer",
				Email:         "jane@example.com",
				InterviewDate: "2024-03-15",
				InterviewTime: "14:30 PDT",
				Summary:       "Great candidate.",
			},
			ManagerComment:  "hire",
			WebhookResponse: &verdict,
			RecordingID:     &recID,
			RecordingLink:   &link,
		},
		{
			ID:     "notes-2",
			Status: models.StatusPending,
			ParsedFields: models.ParsedFields{
				CandidateName: "John Roe",
				Summary:       models.NoSummaryFound,
			},
		},
		{ID: "notes-3", Status: models.StatusFail},
	}
}

func openWorkbook(t *testing.T, views []models.CandidateView) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, views, time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteWorkbook_Sheets(t *testing.T) {
	f := openWorkbook(t, sampleViews())
	assert.Equal(t, []string{summarySheet, candidatesSheet}, f.GetSheetList())
}

func TestWriteWorkbook_Summary(t *testing.T) {
	f := openWorkbook(t, sampleViews())

	rows, err := f.GetRows(summarySheet)
	require.NoError(t, err)

	values := map[string]string{}
	for _, row := range rows {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "2024-03-16 09:00:00", values["Generated:"])
	assert.Equal(t, "3", values["Total Candidates:"])
	assert.Equal(t, "1", values["Pending:"])
	assert.Equal(t, "1", values["Pass:"])
	assert.Equal(t, "1", values["Fail:"])
	assert.Equal(t, "1", values["Evaluated:"])
	assert.Equal(t, "1", values["With Recording:"])
}

func TestWriteWorkbook_CandidateRows(t *testing.T) {
	f := openWorkbook(t, sampleViews())

	header, err := f.GetCellValue(candidatesSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Candidate", header)

	name, _ := f.GetCellValue(candidatesSheet, "A2")
	assert.Equal(t, "Jane Doe", name)
	status, _ := f.GetCellValue(candidatesSheet, "G2")
	assert.Equal(t, "pass", status)
	evaluation, _ := f.GetCellValue(candidatesSheet, "I2")
	assert.Equal(t, "verdict: hire", evaluation)

	ok, target, err := f.GetCellHyperLink(candidatesSheet, "J2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://drive.google.com/file/d/rec-1/view", target)

	ok, _, err = f.GetCellHyperLink(candidatesSheet, "J3")
	require.NoError(t, err)
	assert.False(t, ok, "no recording, no link")

	summary, _ := f.GetCellValue(candidatesSheet, "K3")
	assert.Equal(t, models.NoSummaryFound, summary)
}

func TestWriteWorkbook_Empty(t *testing.T) {
	f := openWorkbook(t, nil)

	rows, err := f.GetRows(candidatesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestStatusCounts(t *testing.T) {
	counts := StatusCounts(sampleViews())
	assert.Equal(t, map[models.Status]int{
		models.StatusPending: 1,
		models.StatusPass:    1,
		models.StatusFail:    1,
	}, counts)

	assert.Equal(t, 0, StatusCounts(nil)[models.StatusPass])
}
