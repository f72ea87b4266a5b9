package trackerapi

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/domain/student"
)

// studentDTO accepts both the legacy Mongo "_id" and the plain "id" key.
type studentDTO struct {
	MongoID               flexString `json:"_id"`
	ID                    flexString `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	CFHandle              string     `json:"cfHandle"`
	CurrentRating         flexRating `json:"currentRating"`
	MaxRating             flexRating `json:"maxRating"`
	CFDataLastUpdated     flexTime   `json:"cfDataLastUpdated"`
	EmailReminderDisabled bool       `json:"emailReminderDisabled"`
}

func (d studentDTO) toDomain() student.Student {
	id := strings.TrimSpace(string(d.MongoID))
	if id == "" {
		id = strings.TrimSpace(string(d.ID))
	}

	return student.Student{
		ID:                    id,
		Name:                  strings.TrimSpace(d.Name),
		Email:                 strings.TrimSpace(d.Email),
		Phone:                 strings.TrimSpace(d.Phone),
		CFHandle:              strings.TrimSpace(d.CFHandle),
		CurrentRating:         d.CurrentRating.ptr(),
		MaxRating:             d.MaxRating.ptr(),
		CFDataLastUpdated:     d.CFDataLastUpdated.ptr(),
		EmailReminderDisabled: d.EmailReminderDisabled,
	}
}

type contestDTO struct {
	ContestID     flexString `json:"contestId"`
	Date          flexTime   `json:"date"`
	Name          string     `json:"name"`
	Rank          flexFloat  `json:"rank"`
	Delta         flexFloat  `json:"delta"`
	NewRating     flexFloat  `json:"newRating"`
	UnsolvedCount flexFloat  `json:"unsolvedCount"`
}

type profileDTO struct {
	TotalSolved    flexFloat      `json:"totalSolved"`
	HardestProblem flexString     `json:"hardestProblem"`
	AvgRating      flexFloat      `json:"avgRating"`
	AvgPerDay      flexFloat      `json:"avgPerDay"`
	Contests       []contestDTO   `json:"contests"`
	RatingBuckets  map[string]int `json:"ratingBuckets"`
	Heatmap        map[string]int `json:"heatmap"`
}

func (d profileDTO) toDomain() profile.Snapshot {
	contests := make([]profile.Contest, 0, len(d.Contests))
	for _, c := range d.Contests {
		date := time.Time{}
		if parsed := c.Date.ptr(); parsed != nil {
			date = *parsed
		}
		contests = append(contests, profile.Contest{
			ContestID:     strings.TrimSpace(string(c.ContestID)),
			Date:          date,
			Name:          strings.TrimSpace(c.Name),
			Rank:          c.Rank.int(),
			Delta:         c.Delta.int(),
			NewRating:     c.NewRating.int(),
			UnsolvedCount: c.UnsolvedCount.int(),
		})
	}

	buckets := d.RatingBuckets
	if buckets == nil {
		buckets = map[string]int{}
	}
	heatmap := d.Heatmap
	if heatmap == nil {
		heatmap = map[string]int{}
	}

	return profile.Snapshot{
		TotalSolved:    d.TotalSolved.int(),
		HardestProblem: strings.TrimSpace(string(d.HardestProblem)),
		AvgRating:      float64(d.AvgRating),
		AvgPerDay:      float64(d.AvgPerDay),
		Contests:       contests,
		RatingBuckets:  buckets,
		Heatmap:        heatmap,
	}
}

// errorBody is the tracker API's failure payload; both keys have been seen in the wild.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorBody) text() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Error)
}

var jsonNull = []byte("null")

// flexString accepts strings and numbers.
type flexString string

func (s *flexString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		*s = ""
		return nil
	}
	if raw[0] == '"' {
		var out string
		if err := sonic.Unmarshal(raw, &out); err != nil {
			return err
		}
		*s = flexString(out)
		return nil
	}
	*s = flexString(string(raw))
	return nil
}

// flexFloat accepts numbers and numeric strings such as the "1523.40" averages.
// Anything unparsable decodes as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		*f = 0
		return nil
	}
	text := strings.Trim(string(raw), `"`)
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		*f = 0
		return nil
	}
	*f = flexFloat(value)
	return nil
}

func (f flexFloat) int() int {
	return int(math.Round(float64(f)))
}

// flexRating is an optional rating. Null, empty and unparsable values decode as absent,
// which renders as unrated.
type flexRating struct {
	value *int
}

func (r *flexRating) UnmarshalJSON(raw []byte) error {
	r.value = nil
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}
	text := strings.TrimSpace(strings.Trim(string(raw), `"`))
	if text == "" {
		return nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	v := int(math.Round(value))
	r.value = &v
	return nil
}

func (r flexRating) ptr() *int {
	return r.value
}

// flexTime accepts RFC 3339 strings, date-only strings and unix epochs in seconds or
// milliseconds. Empty, zero and unparsable values decode as absent.
type flexTime struct {
	value *time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *flexTime) UnmarshalJSON(raw []byte) error {
	t.value = nil
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}

	if raw[0] != '"' {
		t.value = fromEpoch(string(raw))
		return nil
	}

	var text string
	if err := sonic.Unmarshal(raw, &text); err != nil {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			if parsed.IsZero() || parsed.Unix() <= 0 {
				return nil
			}
			v := parsed.UTC()
			t.value = &v
			return nil
		}
	}
	t.value = fromEpoch(text)
	return nil
}

func (t flexTime) ptr() *time.Time {
	return t.value
}

func fromEpoch(raw string) *time.Time {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	var parsed time.Time
	if value >= 1e12 {
		parsed = time.UnixMilli(int64(value)).UTC()
	} else {
		parsed = time.Unix(int64(value), 0).UTC()
	}
	return &parsed
}
