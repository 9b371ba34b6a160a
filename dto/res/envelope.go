package res

// CommonResponse wraps every successful payload.
type CommonResponse[T any] struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
}

// ErrorResponse carries either a message or a field->tag map for validation failures.
type ErrorResponse struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Error      interface{} `json:"error"`
	RequestID  string      `json:"request_id,omitempty"`
}
