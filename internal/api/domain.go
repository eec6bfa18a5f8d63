package api

// Response represents a generic API response for success or error messages.
type Response struct {
	Success   bool   `json:"success" example:"true"`                           // Indicates if the operation was successful.
	Stage     string `json:"stage,omitempty" example:"hotels"`                 // Pipeline stage a failure happened in, when known.
	Message   string `json:"message,omitempty" example:"Operation successful"` // Optional success message.
	Error     string `json:"error,omitempty" example:"Resource not found"`     // Optional error message.
	RequestID string `json:"request_id,omitempty"`                             // Correlates the response with server logs.
}
