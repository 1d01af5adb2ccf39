package http

import (
	"encoding/json"
	"net/http"

	apperrors "motorhub/pkg/errors"
)

// Response is the body of every successful gateway response. Notice carries
// a non-fatal message such as an offline warning.
type Response struct {
	Data   any    `json:"data,omitempty"`
	Notice string `json:"notice,omitempty"`
}

type ListResponse struct {
	Data   any    `json:"data"`
	Count  int    `json:"count"`
	Notice string `json:"notice,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	return WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

func WriteSuccess(w http.ResponseWriter, data any, notice string) error {
	return WriteJSON(w, http.StatusOK, Response{Data: data, Notice: notice})
}

func WriteCreated(w http.ResponseWriter, data any, notice string) error {
	return WriteJSON(w, http.StatusCreated, Response{Data: data, Notice: notice})
}

// WriteAccepted is used for writes that were stored offline.
func WriteAccepted(w http.ResponseWriter, data any, notice string) error {
	return WriteJSON(w, http.StatusAccepted, Response{Data: data, Notice: notice})
}

func WriteList(w http.ResponseWriter, data any, count int, notice string) error {
	return WriteJSON(w, http.StatusOK, ListResponse{Data: data, Count: count, Notice: notice})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
