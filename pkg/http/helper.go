package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "motorhub/pkg/errors"
)

// DecodeJSON reads the request body into v. Unknown fields are ignored.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperrors.InvalidInput("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}

// ListParams are the list-view query parameters: ?status=&search=
type ListParams struct {
	Status string
	Search string
}

func ExtractListParams(r *http.Request) ListParams {
	query := r.URL.Query()
	return ListParams{
		Status: strings.TrimSpace(query.Get("status")),
		Search: strings.TrimSpace(query.Get("search")),
	}
}
