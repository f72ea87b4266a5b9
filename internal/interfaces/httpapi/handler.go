package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/student-tracker/internal/domain/student"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

type Handler struct {
	roster   *usecase.RosterController
	profiles *usecase.ProfileSessions
	logger   *logging.Logger
	now      func() time.Time
}

func NewHandler(
	roster *usecase.RosterController,
	profiles *usecase.ProfileSessions,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		roster:   roster,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type studentFieldsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CFHandle string `json:"cfHandle"`
}

func (req studentFieldsRequest) toFields() student.Fields {
	return student.Fields{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		CFHandle: req.CFHandle,
	}
}

func decodeStudentFields(r *http.Request) (student.Fields, error) {
	var req studentFieldsRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return student.Fields{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return req.toFields(), nil
}

func pathStudentID(r *http.Request) (string, error) {
	studentID := strings.TrimSpace(r.PathValue("studentID"))
	if studentID == "" {
		return "", fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}
	return studentID, nil
}

// queryBool treats a missing parameter as false.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", usecase.ErrInvalidInput, name)
	}
	return value, nil
}
