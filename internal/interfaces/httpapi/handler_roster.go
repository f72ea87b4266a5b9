package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/riskibarqy/student-tracker/internal/domain/student"
	"github.com/riskibarqy/student-tracker/internal/platform/opstate"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoster")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, rosterViewToDTO(ctx, h.roster.View()))
}

func (h *Handler) RefreshRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshRoster")
	defer span.End()

	if err := h.roster.List(ctx); err != nil {
		h.logger.WarnContext(ctx, "refresh roster failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rosterViewToDTO(ctx, h.roster.View()))
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateStudent")
	defer span.End()

	fields, err := decodeStudentFields(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.roster.Create(ctx, fields)
	if err != nil {
		h.logger.WarnContext(ctx, "create student failed", "cf_handle", fields.CFHandle, "error", err)
		writeFieldErrors(ctx, w, err, h.roster.View().CreateForm.FieldErrors)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, studentToDTO(ctx, created))
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateStudent")
	defer span.End()

	studentID, err := pathStudentID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	fields, err := decodeStudentFields(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.roster.Update(ctx, studentID, fields)
	if err != nil {
		h.logger.WarnContext(ctx, "update student failed", "student_id", studentID, "error", err)
		writeFieldErrors(ctx, w, err, h.roster.View().EditForm.FieldErrors)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, studentToDTO(ctx, updated))
}

// DeleteStudent only sends the delete when the caller passed confirm=true. A confirmed delete
// runs on the dispatch pool like sync and toggle and answers 202 with the row marked deleting.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteStudent")
	defer span.End()

	studentID, err := pathStudentID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	confirmed, err := queryBool(r, "confirm")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	confirm := usecase.ConfirmFunc(func(context.Context, string) bool { return confirmed })
	dispatched, err := h.roster.DeleteAsync(ctx, studentID, confirm)
	if err != nil {
		if !errors.Is(err, usecase.ErrOperationInFlight) {
			h.logger.WarnContext(ctx, "delete student failed", "student_id", studentID, "error", err)
		}
		writeError(ctx, w, err)
		return
	}
	if !dispatched {
		writeSuccess(ctx, w, http.StatusOK, deleteResultDTO{StudentID: studentID, Deleted: false})
		return
	}
	if h.profiles != nil {
		h.profiles.Forget(ctx, studentID)
	}

	writeSuccess(ctx, w, http.StatusAccepted, rowOperationDTO{
		StudentID: studentID,
		Operation: string(opstate.KindDelete),
		State:     opstate.Pending.String(),
	})
}

func (h *Handler) SyncStudent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncStudent")
	defer span.End()

	h.dispatchRowOperation(ctx, w, r, opstate.KindSync, h.roster.SyncNowAsync)
}

func (h *Handler) ToggleStudentReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleStudentReminder")
	defer span.End()

	h.dispatchRowOperation(ctx, w, r, opstate.KindToggleReminder, h.roster.ToggleReminderAsync)
}

func (h *Handler) dispatchRowOperation(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	kind opstate.Kind,
	start func(ctx context.Context, studentID string) error,
) {
	studentID, err := pathStudentID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := start(ctx, studentID); err != nil {
		if !errors.Is(err, usecase.ErrOperationInFlight) {
			h.logger.WarnContext(ctx, "dispatch row operation failed", "student_id", studentID, "kind", kind, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, rowOperationDTO{
		StudentID: studentID,
		Operation: string(kind),
		State:     opstate.Pending.String(),
	})
}

func (h *Handler) OpenCreateForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OpenCreateForm")
	defer span.End()

	h.roster.OpenCreateForm()
	writeSuccess(ctx, w, http.StatusOK, formToDTO(h.roster.View().CreateForm))
}

func (h *Handler) CloseCreateForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseCreateForm")
	defer span.End()

	h.roster.CloseCreateForm()
	writeSuccess(ctx, w, http.StatusOK, formToDTO(h.roster.View().CreateForm))
}

func (h *Handler) OpenEditForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OpenEditForm")
	defer span.End()

	studentID, err := pathStudentID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.roster.OpenEditForm(studentID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, formToDTO(h.roster.View().EditForm))
}

func (h *Handler) CloseEditForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseEditForm")
	defer span.End()

	h.roster.CloseEditForm()
	writeSuccess(ctx, w, http.StatusOK, formToDTO(h.roster.View().EditForm))
}

// ExportRosterCSV hands the download to the tracker API.
func (h *Handler) ExportRosterCSV(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "httpapi.Handler.ExportRosterCSV")
	defer span.End()

	http.Redirect(w, r, h.roster.ExportCSVURL(), http.StatusFound)
}

func (h *Handler) ExportRosterXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportRosterXLSX")
	defer span.End()

	now := h.now()
	rows := h.roster.View().Rows
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.Student)
	}

	book, err := buildRosterWorkbook(ctx, students, now)
	if err != nil {
		h.logger.ErrorContext(ctx, "build roster workbook failed", "error", err)
		writeInternalError(ctx, w)
		return
	}
	defer func() { _ = book.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+rosterWorkbookName(now)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		h.logger.WarnContext(ctx, "write roster workbook failed", "error", err)
	}
}
