/*
Package resp writes the JSON envelope every REST endpoint responds with:
{"code": 0, "message": "success", "data": ...} on success and the errs code and message otherwise.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"socialex/internal/pkg/errs"
)

// JSONResponse is the response envelope.
type JSONResponse struct {
	// Code is 0 on success and an errs code otherwise.
	Code int `json:"code"`

	// Message is "success", an endpoint-specific confirmation or the error message.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON writes payload with the given status.
// Encoding failures are logged on the request logger and answered with a bare 500.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("http_status", httpStatus).Msg("Error encoding JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess answers 200 with data under the "success" message.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondMessage(w, r, "success", data)
}

// RespondMessage answers 200 with data under a confirmation message such as "Chat ready".
func RespondMessage(w http.ResponseWriter, r *http.Request, message string, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Message: message, Data: data})
}

// RespondError answers with the status, code and message of customErr.
// A nil customErr is answered as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	if customErr.Status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Int("code", customErr.Code).
			Str("path", r.URL.Path).
			Msg(customErr.Message)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
