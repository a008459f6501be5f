package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quote-desk-backend/internal/api"
	"quote-desk-backend/internal/api/middleware"
	"quote-desk-backend/internal/identity"
	"quote-desk-backend/internal/service/chat"
	"quote-desk-backend/internal/service/dashboard"
	"quote-desk-backend/internal/service/quotation"
)

type HTTPError = api.HTTPError

const maxBodyBytes = 1 << 20

type ApiMessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	return api.WriteJSON(w, status, v)
}

func MethodHandler(
	w http.ResponseWriter,
	r *http.Request,
	allowed map[string]func(http.ResponseWriter, *http.Request) error,
) error {
	if handler, ok := allowed[r.Method]; ok {
		return handler(w, r)
	}
	return &HTTPError{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "Method not allowed.",
		ErrorLog:   fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode %s body: %w", r.URL.Path, err),
		}
	}
	return nil
}

func pathValue(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		return "", &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("missing path value %q in %s", name, r.URL.Path),
		}
	}
	return v, nil
}

// requestIdentity is the identity the auth middleware put on the request.
func requestIdentity(r *http.Request) (string, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return "", &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("no identity on request to %s", r.URL.Path),
		}
	}
	return id, nil
}

func statusForCode(code string) int {
	switch code {
	case string(chat.ErrorCodeValidation):
		return http.StatusBadRequest
	case string(chat.ErrorCodeUnauthorized):
		return http.StatusUnauthorized
	case string(chat.ErrorCodeForbidden):
		return http.StatusForbidden
	case string(chat.ErrorCodeNotFound):
		return http.StatusNotFound
	case string(chat.ErrorCodeConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codedError(code, message string, cause error) error {
	var logErr error = errors.New(message)
	if cause != nil {
		logErr = fmt.Errorf("%s: %w", message, cause)
	}
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	return &HTTPError{StatusCode: status, Message: message, ErrorLog: logErr}
}

// serviceError maps service and core errors to HTTP responses.
func serviceError(err error) error {
	if err == nil {
		return nil
	}

	var chatErr *chat.Error
	var quoteErr *quotation.Error
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &chatErr):
		return codedError(string(chatErr.Code), chatErr.Message, chatErr.Err)
	case errors.As(err, &quoteErr):
		return codedError(string(quoteErr.Code), quoteErr.Message, quoteErr.Err)
	case errors.Is(err, dashboard.ErrUnknownConversation):
		return &HTTPError{StatusCode: http.StatusNotFound, Message: "Conversation not found", ErrorLog: err}
	case errors.Is(err, identity.ErrInvalidIdentity):
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: "Invalid identity", ErrorLog: err}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: err}
	}
}
