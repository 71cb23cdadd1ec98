package handler

import "net/http"

// emptyResponse represents an empty HTTP response with only a status code
type emptyResponse struct {
	status int
}

// Render writes the status code without any body content
func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty renders 204 No Content. Used by mutations that have nothing to
// report back, like revokes and deactivations.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

// EmptyWithStatus renders an arbitrary status with no body.
func EmptyWithStatus(status int) Response {
	return emptyResponse{status: status}
}
