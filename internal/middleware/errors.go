package middleware

import (
	"encoding/json"
	"net/http"

	"brew-reviews/internal/utils"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError writes appErr with the HTTP status its code maps to. fields may be nil.
func WriteError(w http.ResponseWriter, appErr *utils.AppError, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(utils.AppErrorToHTTPStatus(appErr.Code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: appErr.Code, Message: appErr.Message, Fields: fields})
}

func writeError(w http.ResponseWriter, appErr *utils.AppError) {
	WriteError(w, appErr, nil)
}
