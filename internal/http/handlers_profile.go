package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, core.ErrUserNotResolved, applog.OpRead, msgUserNotResolved)
		return
	}
	NewResponse().JSON(newUserView(sess.User)).Write(w)
}

// handleUpdateProfile accepts a multipart form with a name and an optional
// avatar file.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, core.ErrUserNotResolved, applog.OpUpdate, msgUserNotResolved)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipart)
	if err := r.ParseMultipartForm(maxMultipart); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, r, errors.Join(errBadRequest, err), applog.OpUpdate, msgInvalidRequest)
		return
	}
	name := sanitizeInput(r.FormValue("name"))

	var avatar *services.Avatar
	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()
		avatar = &services.Avatar{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		writeError(w, r, errors.Join(errBadRequest, err), applog.OpUpload, msgInvalidRequest)
		return
	}

	updated, err := s.profiles.UpdateProfile(r.Context(), sess.User, name, avatar)
	if err != nil {
		writeError(w, r, err, applog.OpUpdate, msgSaveProfile)
		return
	}
	NewResponse().
		Changed(events.NewChange(events.ResourceProfile, updated.ID, s.now())).
		TriggerSuccessNotification(msgProfileUpdated).
		JSON(newUserView(updated)).
		Write(w)
}
