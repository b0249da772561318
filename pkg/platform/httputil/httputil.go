// Package httputil maps domain errors onto HTTP responses so handlers stay
// thin and the error taxonomy is rendered consistently.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "commune/pkg/domain-errors"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeBadRequest:      http.StatusBadRequest,
	dErrors.CodeInvalidInput:    http.StatusBadRequest,
	dErrors.CodeUnauthorized:    http.StatusForbidden,
	dErrors.CodeNotFound:        http.StatusNotFound,
	dErrors.CodeDuplicateEntity: http.StatusConflict,
	dErrors.CodeAlreadySettled:  http.StatusConflict,
	dErrors.CodeExpired:         http.StatusGone,
	dErrors.CodeTimeout:         http.StatusGatewayTimeout,
	dErrors.CodeInternal:        http.StatusInternalServerError,
}

// WriteError renders err as JSON. Internal errors omit the description so
// infrastructure details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = dErrors.CodeInternal
		status = http.StatusInternalServerError
	}

	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Description = de.Message()
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status and a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
