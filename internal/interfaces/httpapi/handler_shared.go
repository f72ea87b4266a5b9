package httpapi

import (
	"context"
	"time"

	"github.com/riskibarqy/student-tracker/internal/domain/analytics"
	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/domain/student"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

type studentDTO struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Email                 string  `json:"email"`
	Phone                 string  `json:"phone"`
	CFHandle              string  `json:"cfHandle"`
	CurrentRating         *int    `json:"currentRating"`
	MaxRating             *int    `json:"maxRating"`
	CFDataLastUpdated     *string `json:"cfDataLastUpdated"`
	EmailReminderDisabled bool    `json:"emailReminderDisabled"`
}

type bandDTO struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Emphasized bool   `json:"emphasized"`
}

type studentFieldsDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CFHandle string `json:"cfHandle"`
}

type formDTO struct {
	Open        bool              `json:"open"`
	Submitting  bool              `json:"submitting"`
	StudentID   string            `json:"studentId,omitempty"`
	Fields      studentFieldsDTO  `json:"fields"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type rosterRowDTO struct {
	Student          studentDTO        `json:"student"`
	CurrentBand      bandDTO           `json:"currentBand"`
	MaxBand          bandDTO           `json:"maxBand"`
	NeverSynced      bool              `json:"neverSynced"`
	Syncing          bool              `json:"syncing"`
	Deleting         bool              `json:"deleting"`
	TogglingReminder bool              `json:"togglingReminder"`
	Errors           map[string]string `json:"errors,omitempty"`
}

type rosterStatsDTO struct {
	Count         int         `json:"count"`
	AverageRating *float64    `json:"averageRating"`
	TopStudent    *studentDTO `json:"topStudent"`
}

type rosterViewDTO struct {
	Rows         []rosterRowDTO `json:"rows"`
	Stats        rosterStatsDTO `json:"stats"`
	Loading      bool           `json:"loading"`
	LoadError    string         `json:"loadError,omitempty"`
	RefreshError string         `json:"refreshError,omitempty"`
	CreateForm   formDTO        `json:"createForm"`
	EditForm     formDTO        `json:"editForm"`
	ExportCSVURL string         `json:"exportCsvUrl"`
}

type rowOperationDTO struct {
	StudentID string `json:"studentId"`
	Operation string `json:"operation"`
	State     string `json:"state"`
}

type deleteResultDTO struct {
	StudentID string `json:"studentId"`
	Deleted   bool   `json:"deleted"`
}

type profileSummaryDTO struct {
	TotalSolved    int     `json:"totalSolved"`
	HardestProblem string  `json:"hardestProblem"`
	AvgRating      float64 `json:"avgRating"`
	AvgPerDay      float64 `json:"avgPerDay"`
}

type ratingPointDTO struct {
	Date   string `json:"date"`
	Rating int    `json:"rating"`
}

type contestRowDTO struct {
	ContestID     string `json:"contestId"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	Rank          int    `json:"rank"`
	Delta         int    `json:"delta"`
	DeltaLabel    string `json:"deltaLabel"`
	Trend         string `json:"trend"`
	NewRating     int    `json:"newRating"`
	UnsolvedCount int    `json:"unsolvedCount"`
}

type bucketDTO struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type heatmapDTO struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Intensity int    `json:"intensity"`
}

type profileViewDTO struct {
	StudentID     string             `json:"studentId"`
	WindowDays    int                `json:"windowDays"`
	Windows       []int              `json:"windows"`
	Ready         bool               `json:"ready"`
	Student       *studentDTO        `json:"student,omitempty"`
	CurrentBand   *bandDTO           `json:"currentBand,omitempty"`
	MaxBand       *bandDTO           `json:"maxBand,omitempty"`
	Summary       *profileSummaryDTO `json:"summary,omitempty"`
	RatingSeries  []ratingPointDTO   `json:"ratingSeries,omitempty"`
	Contests      []contestRowDTO    `json:"contests,omitempty"`
	RatingBuckets []bucketDTO        `json:"ratingBuckets,omitempty"`
	Heatmap       []heatmapDTO       `json:"heatmap,omitempty"`
	IdentityError string             `json:"identityError,omitempty"`
	SnapshotError string             `json:"snapshotError,omitempty"`
}

func studentToDTO(_ context.Context, v student.Student) studentDTO {
	return studentDTO{
		ID:                    v.ID,
		Name:                  v.Name,
		Email:                 v.Email,
		Phone:                 v.Phone,
		CFHandle:              v.CFHandle,
		CurrentRating:         v.CurrentRating,
		MaxRating:             v.MaxRating,
		CFDataLastUpdated:     formatOptionalTime(v.CFDataLastUpdated),
		EmailReminderDisabled: v.EmailReminderDisabled,
	}
}

func bandToDTO(b analytics.Band) bandDTO {
	return bandDTO{
		Name:       b.String(),
		Color:      b.Color(),
		Emphasized: b.Emphasized(),
	}
}

func formToDTO(f usecase.FormState) formDTO {
	return formDTO{
		Open:       f.Open,
		Submitting: f.Submitting,
		StudentID:  f.StudentID,
		Fields: studentFieldsDTO{
			Name:     f.Fields.Name,
			Email:    f.Fields.Email,
			Phone:    f.Fields.Phone,
			CFHandle: f.Fields.CFHandle,
		},
		FieldErrors: f.FieldErrors,
		Error:       f.Error,
	}
}

func rosterViewToDTO(ctx context.Context, v usecase.RosterView) rosterViewDTO {
	rows := make([]rosterRowDTO, 0, len(v.Rows))
	for _, row := range v.Rows {
		item := rosterRowDTO{
			Student:          studentToDTO(ctx, row.Student),
			CurrentBand:      bandToDTO(row.CurrentBand),
			MaxBand:          bandToDTO(row.MaxBand),
			NeverSynced:      row.NeverSynced,
			Syncing:          row.Syncing,
			Deleting:         row.Deleting,
			TogglingReminder: row.TogglingReminder,
		}
		if len(row.Errors) > 0 {
			item.Errors = make(map[string]string, len(row.Errors))
			for kind, msg := range row.Errors {
				item.Errors[string(kind)] = msg
			}
		}
		rows = append(rows, item)
	}

	stats := rosterStatsDTO{
		Count:         v.Stats.Count,
		AverageRating: v.Stats.AverageRating,
	}
	if v.Stats.Top != nil {
		top := studentToDTO(ctx, *v.Stats.Top)
		stats.TopStudent = &top
	}

	return rosterViewDTO{
		Rows:         rows,
		Stats:        stats,
		Loading:      v.Loading,
		LoadError:    v.LoadError,
		RefreshError: v.RefreshError,
		CreateForm:   formToDTO(v.CreateForm),
		EditForm:     formToDTO(v.EditForm),
		ExportCSVURL: v.ExportCSVURL,
	}
}

func profileViewToDTO(ctx context.Context, v usecase.ProfileView) profileViewDTO {
	out := profileViewDTO{
		StudentID:     v.StudentID,
		WindowDays:    v.Window.Days(),
		Windows:       windowDays(v.Windows),
		Ready:         v.Ready,
		IdentityError: v.IdentityError,
		SnapshotError: v.SnapshotError,
	}
	if !v.Ready || v.Student == nil {
		return out
	}

	s := studentToDTO(ctx, *v.Student)
	current := bandToDTO(v.CurrentBand)
	highest := bandToDTO(v.MaxBand)
	out.Student = &s
	out.CurrentBand = &current
	out.MaxBand = &highest
	out.Summary = &profileSummaryDTO{
		TotalSolved:    v.Summary.TotalSolved,
		HardestProblem: v.Summary.HardestProblem,
		AvgRating:      v.Summary.AvgRating,
		AvgPerDay:      v.Summary.AvgPerDay,
	}

	out.RatingSeries = make([]ratingPointDTO, 0, len(v.RatingSeries))
	for _, p := range v.RatingSeries {
		out.RatingSeries = append(out.RatingSeries, ratingPointDTO{Date: p.Date.Format(analytics.DateLayout), Rating: p.Rating})
	}

	out.Contests = make([]contestRowDTO, 0, len(v.Contests))
	for _, row := range v.Contests {
		out.Contests = append(out.Contests, contestRowDTO{
			ContestID:     row.Contest.ContestID,
			Date:          row.Contest.Date.Format(analytics.DateLayout),
			Name:          row.Contest.Name,
			Rank:          row.Contest.Rank,
			Delta:         row.Contest.Delta,
			DeltaLabel:    row.DeltaLabel,
			Trend:         string(row.Trend),
			NewRating:     row.Contest.NewRating,
			UnsolvedCount: row.Contest.UnsolvedCount,
		})
	}

	out.RatingBuckets = make([]bucketDTO, 0, len(v.RatingBuckets))
	for _, b := range v.RatingBuckets {
		out.RatingBuckets = append(out.RatingBuckets, bucketDTO{Label: b.Label, Count: b.Count})
	}

	out.Heatmap = make([]heatmapDTO, 0, len(v.Heatmap))
	for _, p := range v.Heatmap {
		out.Heatmap = append(out.Heatmap, heatmapDTO{Date: p.Date, Count: p.Count, Intensity: p.Intensity})
	}

	return out
}

func windowDays(windows []profile.Window) []int {
	out := make([]int, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.Days())
	}
	return out
}

func formatOptionalTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	formatted := v.UTC().Format(time.RFC3339)
	return &formatted
}
