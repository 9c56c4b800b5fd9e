package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ironsheep/fra-claim-ocr/internal/pipeline"
)

// inputError rejects a request before the pipeline runs. Its message is the
// client-facing detail.
type inputError struct {
	detail string
}

func (e *inputError) Error() string { return e.detail }

var (
	errNoFile          = &inputError{detail: "No file provided"}
	errUnsupportedType = &inputError{detail: pipeline.MsgUnsupported}
	errBatchTooLarge   = &inputError{detail: "Maximum 10 files allowed in batch"}
)

// detailResponse is the body of every error response.
type detailResponse struct {
	Detail string `json:"detail"`
}

// errorStatus maps an error to its status code and detail message.
func errorStatus(err error) (int, string) {
	var ie *inputError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest, ie.detail
	case errors.Is(err, pipeline.ErrBatchTooLarge):
		return http.StatusBadRequest, errBatchTooLarge.detail
	case errors.Is(err, pipeline.ErrUnsupportedType):
		return http.StatusBadRequest, errUnsupportedType.detail
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, detail := errorStatus(err)
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
