package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Candidates"
)

// ContentType is the media type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var candidateHeaders = []string{
	"Candidate", "Company", "Position", "Email", "Interview Date", "Interview Time",
	"Status", "Manager Comment", "Evaluation", "Recording", "Summary",
}

// WriteWorkbook renders the candidate views as an Excel workbook into w
func WriteWorkbook(w io.Writer, views []models.CandidateView, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := createSummarySheet(f, summarySheet, views, generated); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createCandidatesSheet(f, candidatesSheet, views); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// StatusCounts tallies views per review status
func StatusCounts(views []models.CandidateView) map[models.Status]int {
	counts := map[models.Status]int{
		models.StatusPending: 0,
		models.StatusPass:    0,
		models.StatusFail:    0,
	}
	for _, v := range views {
		counts[v.Status]++
	}
	return counts
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// statusFill is the row color of a status
func statusFill(s models.Status) string {
	switch s {
	case models.StatusPass:
		return "C6EFCE"
	case models.StatusFail:
		return "FFC7CE"
	default:
		return "FFEB9C"
	}
}

// createSummarySheet writes the report title and status statistics
func createSummarySheet(f *excelize.File, sheetName string, views []models.CandidateView, generated time.Time) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 40)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Interview Review Report")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	label := func(name string, value interface{}) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), value)
		row++
	}
	label("Generated:", generated.UTC().Format("2006-01-02 15:04:05"))
	label("Total Candidates:", len(views))
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Statistics:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row++

	counts := StatusCounts(views)
	label("Pending:", counts[models.StatusPending])
	label("Pass:", counts[models.StatusPass])
	label("Fail:", counts[models.StatusFail])

	evaluated := 0
	for _, v := range views {
		if v.WebhookResponse != nil {
			evaluated++
		}
	}
	row++
	label("Evaluated:", evaluated)
	label("With Recording:", countRecordings(views))

	return nil
}

func countRecordings(views []models.CandidateView) int {
	n := 0
	for _, v := range views {
		if v.RecordingLink != nil {
			n++
		}
	}
	return n
}

// createCandidatesSheet writes one color-coded row per candidate
func createCandidatesSheet(f *excelize.File, sheetName string, views []models.CandidateView) error {
	widths := []float64{25, 25, 25, 30, 15, 15, 10, 40, 60, 15, 60}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, width)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return err
	}

	rowStyles := map[models.Status]int{}
	linkStyles := map[models.Status]int{}
	for _, s := range []models.Status{models.StatusPending, models.StatusPass, models.StatusFail} {
		fill := excelize.Fill{Type: "pattern", Color: []string{statusFill(s)}, Pattern: 1}
		if rowStyles[s], err = f.NewStyle(&excelize.Style{
			Fill:      fill,
			Border:    thinBorder(),
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		}); err != nil {
			return err
		}
		if linkStyles[s], err = f.NewStyle(&excelize.Style{
			Font:   &excelize.Font{Color: "0563C1", Underline: "single"},
			Fill:   fill,
			Border: thinBorder(),
		}); err != nil {
			return err
		}
	}

	for col, header := range candidateHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(candidateHeaders))

	for i, v := range views {
		row := i + 2
		evaluation := ""
		if v.WebhookResponse != nil {
			evaluation = v.WebhookResponse.String()
		}
		values := []interface{}{
			v.CandidateName, v.Company, v.PositionMatch, v.Email, v.InterviewDate, v.InterviewTime,
			string(v.Status), v.ManagerComment, evaluation, "", v.Summary,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, value)
		}

		status := v.Status
		if _, ok := rowStyles[status]; !ok {
			status = models.StatusPending
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), rowStyles[status])

		if v.RecordingLink != nil {
			cell := fmt.Sprintf("J%d", row)
			f.SetCellValue(sheetName, cell, "Open Recording")
			f.SetCellHyperLink(sheetName, cell, *v.RecordingLink, "External")
			f.SetCellStyle(sheetName, cell, cell, linkStyles[status])
		}
	}

	if len(views) > 0 {
		f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(views)+1), []excelize.AutoFilterOptions{})
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}
