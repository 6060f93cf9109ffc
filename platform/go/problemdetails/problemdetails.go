package problemdetails

import (
	"encoding/json"
	"net/http"
)

// ContentType is the RFC 7807 media type for problem responses.
const ContentType = "application/problem+json"

// ProblemDetails follows RFC 7807 for machine-readable HTTP error payloads.
type ProblemDetails struct {
	Type   *string              `json:"type,omitempty"`
	Title  string               `json:"title"`
	Status int                  `json:"status"`
	Detail *string              `json:"detail,omitempty"`
	Errors *map[string][]string `json:"errors,omitempty"`
}

// Write serializes the problem to the response with the proper content type.
// Serialization failures degrade to a plain 500 since the problem body itself is static.
func Write(w http.ResponseWriter, problem ProblemDetails) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
