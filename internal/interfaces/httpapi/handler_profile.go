package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

// GetProfile refetches the student's profile for the requested window (default 90 days) and
// returns the projections for exactly that window.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProfile")
	defer span.End()

	studentID, err := pathStudentID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	window, err := profile.ParseWindow(r.URL.Query().Get("days"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	controller, err := h.profiles.Controller(ctx, studentID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	view, err := controller.Render(ctx, studentID, window, h.now())
	if err != nil {
		h.logger.WarnContext(ctx, "open profile failed", "student_id", studentID, "window_days", window.Days(), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileViewToDTO(ctx, view))
}
