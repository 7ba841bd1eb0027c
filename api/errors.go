package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// User-facing messages for the error taxonomy. The backend serves a Spanish
// speaking storefront, so display strings stay in Spanish.
const (
	MsgGenericError      = "Ha ocurrido un error"
	MsgNetworkError      = "No se pudo conectar al servidor. Verifica tu conexión a internet."
	MsgSessionExpired    = "Sesión expirada. Por favor, inicia sesión nuevamente."
	MsgForbidden         = "No tienes permisos para realizar esta acción."
	MsgNotFound          = "Recurso no encontrado."
	MsgServerError       = "Error interno del servidor. Por favor, intenta más tarde."
	MsgServiceUnavailable = "Servicio no disponible. Por favor, intenta más tarde."
)

// FieldError is one entry of a 422 validation failure body:
// {"data":[{"field":"email","errors":["..."]}]}.
type FieldError struct {
	Field  string   `json:"field"`
	Errors []string `json:"errors"`
}

// APIError is any failed API call translated to a display string. Status 0
// means the request never reached the server.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// SessionExpiredError is returned when a token refresh fails and the session
// has been terminated. The notification for it has already been shown by the
// authenticator; callers must not notify again.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired: %v", e.Cause)
}

func (e *SessionExpiredError) Unwrap() error {
	return e.Cause
}

// translateError builds an APIError from a non-2xx response body following
// the taxonomy: 422 concatenates field errors, known statuses get fixed
// messages, anything else falls back to the body's own message.
func translateError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: MsgGenericError}

	if status == http.StatusUnprocessableEntity {
		var validation struct {
			Data []FieldError `json:"data"`
		}
		if err := json.Unmarshal(body, &validation); err == nil && len(validation.Data) > 0 {
			apiErr.Fields = validation.Data
			apiErr.Message = joinFieldErrors(validation.Data)
			return apiErr
		}
	}

	switch status {
	case http.StatusUnauthorized:
		apiErr.Message = MsgSessionExpired
	case http.StatusForbidden:
		apiErr.Message = MsgForbidden
	case http.StatusNotFound:
		apiErr.Message = MsgNotFound
	case http.StatusInternalServerError:
		apiErr.Message = MsgServerError
	case http.StatusServiceUnavailable:
		apiErr.Message = MsgServiceUnavailable
	default:
		if msg := bodyMessage(body); msg != "" {
			apiErr.Message = msg
		}
	}
	return apiErr
}

// bodyMessage extracts a backend-provided message from either of the two
// shapes the API uses: {"error":{"Message":"..."}} or {"message":"..."}.
func bodyMessage(body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"Message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return envelope.Message
}

func joinFieldErrors(fields []FieldError) string {
	var parts []string
	for _, f := range fields {
		parts = append(parts, f.Errors...)
	}
	return strings.Join(parts, ". ")
}
