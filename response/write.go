package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Error  *Error      `json:"error,omitempty"`
	Result interface{} `json:"result,omitempty"`
}

// WriteError writes e as the JSON body with its status code
func WriteError(w http.ResponseWriter, r *http.Request, e *Error) {
	write(w, e.StatusCode, envelope{Error: e})
}

// WriteResponse writes result as the JSON body with 200 OK
func WriteResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	write(w, http.StatusOK, envelope{Result: result})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
