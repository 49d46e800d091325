package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/Sundsvallskommun/web-app-student-account-admin/internal/errors"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

const defaultImageWidth = 120

// SchoolHandlers proxies the upstream student-records API. Every call is
// scoped to the logged-in administrator's username so the upstream only
// returns schools that user administers.
type SchoolHandlers struct {
	Directory ports.StudentDirectory
	Logger    *slog.Logger
}

func (h *SchoolHandlers) loginName(r *http.Request) string {
	sess := GetSessionFromContext(r.Context())
	return sess.Principal.Username
}

func (h *SchoolHandlers) writeDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Warn("student directory call failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	WriteError(w, ErrorParams{
		Code:    apperrors.HTTPStatus(err),
		ErrCode: string(apperrors.GetCode(err)),
		Err:     err,
	})
}

func (h *SchoolHandlers) writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	WriteData(w, http.StatusOK, raw)
}

// Schools lists the schools the administrator may manage.
func (h *SchoolHandlers) Schools(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Directory.Schools(r.Context(), h.loginName(r))
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	h.writeRaw(w, raw)
}

// Classes lists the classes of one school.
func (h *SchoolHandlers) Classes(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Directory.Classes(r.Context(), r.PathValue("schoolId"), h.loginName(r))
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	h.writeRaw(w, raw)
}

// ClassPupils lists the pupils of one school class.
func (h *SchoolHandlers) ClassPupils(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Directory.ClassPupils(r.Context(), r.PathValue("schoolClassId"), h.loginName(r))
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	h.writeRaw(w, raw)
}

// SearchPupils searches pupils across the administrator's schools. Query
// parameters are passed through to the upstream search.
func (h *SchoolHandlers) SearchPupils(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Directory.SearchPupils(r.Context(), h.loginName(r), r.URL.Query())
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	h.writeRaw(w, raw)
}

// GeneratePupilPassword asks the upstream for a new generated password.
func (h *SchoolHandlers) GeneratePupilPassword(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Directory.GeneratePupilPassword(r.Context(), h.loginName(r))
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	h.writeRaw(w, raw)
}

// UpdatePupil sets a new password for a pupil.
func (h *SchoolHandlers) UpdatePupil(w http.ResponseWriter, r *http.Request) {
	pupilLoginName := r.PathValue("pupilLoginName")

	var change ports.PupilChange
	if !DecodeJSON(w, r, &change) {
		return
	}
	if change.PupilLoginName == "" {
		change.PupilLoginName = pupilLoginName
	}
	if strings.TrimSpace(change.NewPassword) == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     apperrors.ValidationField("newPassword", "newPassword is required"),
		})
		return
	}

	raw, err := h.Directory.UpdatePupil(r.Context(), pupilLoginName, h.loginName(r), change)
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	h.writeRaw(w, raw)
}

// PersonImage proxies a person photo, scaled to the requested width.
func (h *SchoolHandlers) PersonImage(w http.ResponseWriter, r *http.Request) {
	width := defaultImageWidth
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "validation",
				Err:     apperrors.ValidationField("width", "width must be a positive integer"),
			})
			return
		}
		width = n
	}

	img, err := h.Directory.PersonImage(r.Context(), r.PathValue("personId"), width)
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
	if _, err := w.Write(img); err != nil {
		return
	}
}
