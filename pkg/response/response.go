// Package response defines the JSON envelope shared by every API endpoint.
// Catalog, draft, history and auth handlers all wrap their payloads and
// failures in the same shape, so clients parse one format everywhere.
package response

// Response is the wire envelope. The draft submit path additionally attaches
// the current draft state to error responses through Data.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // mirrors the HTTP status
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps a payload in the success envelope
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps a failure message in the error envelope
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
