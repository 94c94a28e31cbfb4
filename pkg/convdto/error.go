package convdto

const (
	CodeUnknownFormat = "unknown_format"
	CodeParse         = "parse_error"
	CodeTooLarge      = "body_too_large"
	CodeNotFound      = "not_found"
	CodeInternal      = "internal"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "conversion service error"
}

// Retryable reports whether resending the same body can succeed.
func (e Error) Retryable() bool {
	return e.Code == CodeInternal
}
