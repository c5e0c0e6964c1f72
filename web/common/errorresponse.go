package common

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
	}
}

func NewFieldErrorResponse(field, message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
		Field:   field,
	}
}
