// services/api-gateway/handlers/respond.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/example/momo-gateway/internal/momo"
	apperr "github.com/example/momo-gateway/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP statuses. Anything unclassified is a 500.
func writeError(w http.ResponseWriter, err error, rejected *momo.CreateResult) {
	code := apperr.CodeOf(err)
	out := ErrorOut{Error: apperr.MessageOf(err), Code: code}

	status := http.StatusInternalServerError
	switch code {
	case apperr.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperr.CodeOrderNotFound:
		status = http.StatusNotFound
	case apperr.CodeRejected:
		status = http.StatusBadGateway
		if rejected != nil {
			rc := rejected.ResultCode
			out.ResultCode = &rc
		}
	}
	writeJSON(w, status, out)
}
