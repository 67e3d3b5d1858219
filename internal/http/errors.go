package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/objectstore"
	"fintrack/internal/services"
)

// User-facing messages.
const (
	msgUserNotResolved   = "No pudimos obtener los datos del usuario. Iniciá sesión nuevamente."
	msgInvalidAmount     = "Ingresá un monto válido mayor a cero."
	msgInvalidType       = "Seleccioná si es un ingreso o un gasto."
	msgInvalidFilter     = "El filtro de tipo no es válido."
	msgDescriptionTooBig = "La descripción es demasiado larga."
	msgEmptyCategory     = "Ingresá un nombre válido"
	msgCategoryExists    = "La categoría ya existe"
	msgInvalidEmail      = "Ingresá un email válido."
	msgWeakPassword      = "La contraseña debe tener al menos 6 caracteres."
	msgEmailTaken        = "Ya existe una cuenta con ese email."
	msgBadCredentials    = "Email o contraseña incorrectos."
	msgOAuthDisabled     = "El inicio de sesión con Google no está habilitado."
	msgOAuthState        = "La sesión de inicio expiró. Intentá nuevamente."
	msgAvatarTooLarge    = "La imagen supera el tamaño máximo permitido."
	msgAvatarUpload      = "No se pudo subir el avatar."
	msgAvatarURL         = "No se pudo obtener la URL pública del avatar"
	msgRequestCancelled  = "La solicitud fue cancelada."
	msgInvalidRequest    = "Formato de solicitud inválido."
	msgRateLimited       = "Demasiadas solicitudes. Intentá nuevamente en unos minutos."
	msgNotFound          = "Recurso no encontrado."
	msgRequestTooLarge   = "La solicitud es demasiado grande."
	msgSummaryDisabled   = "El análisis con IA no está disponible."
	msgNotReady          = "El servicio no está listo."

	msgLoadTransactions = "No se pudieron cargar las transacciones."
	msgSaveTransaction  = "No se pudo guardar la transacción."
	msgLoadCategories   = "No se pudieron cargar las categorías."
	msgSaveCategory     = "No se pudo guardar la categoría."
	msgLoadDashboard    = "No se pudo cargar el panel."
	msgLoadProfile      = "No se pudo cargar el perfil."
	msgSaveProfile      = "No se pudo actualizar el perfil."
	msgAuthFailed       = "No se pudo completar el inicio de sesión."
	msgProfileUpdated   = "Perfil actualizado correctamente."
	msgTransactionSaved = "Transacción registrada."
	msgCategorySaved    = "Categoría creada."
)

// errorView is how a failure is shown: status and message.
type errorView struct {
	status  int
	message string
}

// viewFor maps err to a status and message. fallback is the message for
// failures that have no specific one (fetch, write and unknown errors).
func viewFor(err error, fallback string) errorView {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return errorView{http.StatusRequestEntityTooLarge, msgRequestTooLarge}
	case errors.Is(err, errBadRequest):
		return errorView{http.StatusBadRequest, msgInvalidRequest}
	case errors.Is(err, core.ErrUserNotResolved):
		return errorView{http.StatusUnauthorized, msgUserNotResolved}
	case errors.Is(err, core.ErrInvalidAmount):
		return errorView{http.StatusUnprocessableEntity, msgInvalidAmount}
	case errors.Is(err, core.ErrInvalidType):
		return errorView{http.StatusUnprocessableEntity, msgInvalidType}
	case errors.Is(err, core.ErrInvalidFilter):
		return errorView{http.StatusBadRequest, msgInvalidFilter}
	case errors.Is(err, core.ErrDescriptionTooLong):
		return errorView{http.StatusUnprocessableEntity, msgDescriptionTooBig}
	case errors.Is(err, core.ErrEmptyCategory):
		return errorView{http.StatusUnprocessableEntity, msgEmptyCategory}
	case errors.Is(err, services.ErrCategoryExists):
		return errorView{http.StatusConflict, msgCategoryExists}
	case errors.Is(err, auth.ErrInvalidEmail):
		return errorView{http.StatusUnprocessableEntity, msgInvalidEmail}
	case errors.Is(err, auth.ErrWeakPassword):
		return errorView{http.StatusUnprocessableEntity, msgWeakPassword}
	case errors.Is(err, auth.ErrEmailTaken):
		return errorView{http.StatusConflict, msgEmailTaken}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return errorView{http.StatusUnauthorized, msgBadCredentials}
	case errors.Is(err, auth.ErrOAuthDisabled):
		return errorView{http.StatusNotFound, msgOAuthDisabled}
	case errors.Is(err, auth.ErrOAuthState):
		return errorView{http.StatusBadRequest, msgOAuthState}
	case errors.Is(err, objectstore.ErrTooLarge):
		return errorView{http.StatusRequestEntityTooLarge, msgAvatarTooLarge}
	case errors.Is(err, services.ErrAvatarURL):
		return errorView{http.StatusBadGateway, msgAvatarURL}
	case errors.Is(err, core.ErrUpload):
		return errorView{http.StatusBadGateway, msgAvatarUpload}
	case errors.Is(err, context.Canceled):
		return errorView{http.StatusServiceUnavailable, msgRequestCancelled}
	default:
		return errorView{http.StatusInternalServerError, fallback}
	}
}

// writeError logs err and writes its view. Client errors log at warn.
func writeError(w http.ResponseWriter, r *http.Request, err error, operation, fallback string) {
	view := viewFor(err, fallback)

	fields := applog.NewFields().WithError(err).WithOperation(operation).WithErrorType(errorType(err, view.status))
	applog.FromContext(r.Context()).LogAt(r.Context(), levelFor(view.status), "Request failed", fields.ToSlice()...)

	ErrorResponse(view.status, view.message).Write(w)
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func errorType(err error, status int) string {
	switch {
	case errors.Is(err, core.ErrUserNotResolved), status == http.StatusUnauthorized:
		return applog.ErrorTypeAuth
	case errors.Is(err, core.ErrFetch), errors.Is(err, core.ErrWrite):
		return applog.ErrorTypeDatabase
	case errors.Is(err, core.ErrUpload):
		return applog.ErrorTypeNetwork
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case status == http.StatusConflict:
		return applog.ErrorTypeConflict
	case status >= http.StatusInternalServerError:
		return applog.ErrorTypeInternal
	default:
		return applog.ErrorTypeValidation
	}
}
