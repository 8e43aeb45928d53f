package renderdto

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e ErrorResponse) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "render service error"
}

// Error codes.
const (
	CodeBadRequest      = "bad_request"
	CodeInvalidNotation = "invalid_notation"
	CodePieceNotFound   = "piece_not_found"
	CodeDuplicateTag    = "duplicate_tag"
	CodeTemplate        = "template_error"
	CodeRender          = "render_error"
	CodeNotFound        = "not_found"
	CodeBusy            = "busy"
	CodeInternal        = "internal"
)
