package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/riskibarqy/student-tracker/internal/domain/analytics"
	"github.com/riskibarqy/student-tracker/internal/domain/student"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	rosterSheet     = "Students"
	neverSyncedText = "Never"
)

var rosterColumns = []string{
	"Name",
	"Email",
	"Phone",
	"Codeforces Handle",
	"Current Rating",
	"Max Rating",
	"Tier",
	"Last Synced",
	"Email Reminders",
}

func rosterWorkbookName(now time.Time) string {
	return fmt.Sprintf("students-%s.xlsx", now.UTC().Format("20060102"))
}

// buildRosterWorkbook lays the roster out as one sheet with a bold frozen header row.
// The caller owns the returned file and must Close it.
func buildRosterWorkbook(ctx context.Context, students []student.Student, now time.Time) (*excelize.File, error) {
	_, span := startSpan(ctx, "httpapi.buildRosterWorkbook")
	defer span.End()

	book := excelize.NewFile()
	if err := book.SetSheetName("Sheet1", rosterSheet); err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := book.SetDocProps(&excelize.DocProperties{
		Title:   "Student roster",
		Created: now.UTC().Format(time.RFC3339),
	}); err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	header := make([]any, 0, len(rosterColumns))
	for _, col := range rosterColumns {
		header = append(header, col)
	}
	if err := book.SetSheetRow(rosterSheet, "A1", &header); err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := book.SetRowStyle(rosterSheet, 1, 1, bold); err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, s := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = book.Close()
			return nil, fmt.Errorf("resolve row %d: %w", i+2, err)
		}
		row := rosterRow(s)
		if err := book.SetSheetRow(rosterSheet, cell, &row); err != nil {
			_ = book.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(rosterColumns))
	if err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("resolve last column: %w", err)
	}
	if err := book.SetColWidth(rosterSheet, "A", lastCol, 20); err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := book.SetPanes(rosterSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		_ = book.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return book, nil
}

func rosterRow(s student.Student) []any {
	lastSynced := neverSyncedText
	if s.CFDataLastUpdated != nil {
		lastSynced = s.CFDataLastUpdated.UTC().Format("2006-01-02 15:04")
	}
	reminders := "On"
	if s.EmailReminderDisabled {
		reminders = "Off"
	}

	return []any{
		s.Name,
		s.Email,
		s.Phone,
		s.CFHandle,
		optionalRating(s.CurrentRating),
		optionalRating(s.MaxRating),
		analytics.RatingColorBand(s.CurrentRating).String(),
		lastSynced,
		reminders,
	}
}

// optionalRating leaves the cell blank for unrated students.
func optionalRating(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
