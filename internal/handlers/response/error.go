package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"gitlab.com/codearena.net/internal/static/errs"
)

type ErrorMessage struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func WriteError(w http.ResponseWriter, err ErrorMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(err)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// statusBySentinel is checked in order; the first match wins
var statusBySentinel = []struct {
	err    error
	status int
}{
	{errs.ErrUnauthenticated, http.StatusUnauthorized},
	{errs.InvalidCredentials, http.StatusUnauthorized},
	{errs.ErrSubmissionNotFound, http.StatusNotFound},
	{errs.ErrProblemNotFound, http.StatusNotFound},
	{errs.ErrUnsupportedLanguage, http.StatusBadRequest},
	{errs.ErrEmptyCode, http.StatusBadRequest},
	{errs.ErrNoTestCases, http.StatusUnprocessableEntity},
	{errs.UserNameTaken, http.StatusConflict},
	{errs.ErrSubmissionFinalized, http.StatusConflict},
	{errs.ErrJudgingTimeout, http.StatusGatewayTimeout},
	{errs.ErrExecutionFailed, http.StatusInternalServerError},
}

// FromError maps a service error to a response. Unknown errors become a
// generic 500 so internal details are not leaked.
func FromError(err error) ErrorMessage {
	for _, entry := range statusBySentinel {
		if errors.Is(err, entry.err) {
			return ErrorMessage{Message: entry.err.Error(), StatusCode: entry.status}
		}
	}
	return ErrorMessage{Message: errs.InternalError.Error(), StatusCode: http.StatusInternalServerError}
}
