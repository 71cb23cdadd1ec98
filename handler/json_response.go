package handler

import (
	"encoding/json"
	"maps"
	"net/http"
)

// JSONResponse is the envelope every API payload renders into. Success
// bodies carry Data, failures carry Error; the two never mix.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is the wire form of a failed request.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the HTTP status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// JSON renders v inside the data envelope with status 200. Passing a
// JSONResponse uses it as the whole body instead.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK}

	switch val := v.(type) {
	case JSONResponse:
		r.body = val
	default:
		r.body.Data = v
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err inside the error envelope. HTTPError and
// ValidationError choose their own status; anything else is an opaque 500.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = errorToDetail(err, &r.status)

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// errorToDetail converts an error to its wire form and sets status.
func errorToDetail(err error, status *int) *ErrorDetail {
	if valErr, ok := err.(ValidationError); ok {
		*status = http.StatusUnprocessableEntity
		detail := &ErrorDetail{
			Code:    "validation_error",
			Message: valErr.Error(),
		}
		if len(valErr) > 0 {
			detail.Details = make(map[string][]string)
			maps.Copy(detail.Details, valErr)
		}
		return detail
	}

	if httpErr, ok := err.(HTTPError); ok {
		*status = httpErr.Code
		return &ErrorDetail{
			Code:    httpErr.Key,
			Message: http.StatusText(httpErr.Code),
		}
	}

	// Internal details never leak to the client.
	return &ErrorDetail{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
