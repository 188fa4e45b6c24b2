package errors

import "net/http"

// ErrorWithCode carries the HTTP status a failure should surface as.
type ErrorWithCode struct {
	Code    int
	Message string
}

func (e *ErrorWithCode) Error() string {
	return e.Message
}

func New(code int, message string) error {
	return &ErrorWithCode{Code: code, Message: message}
}

func BadRequest(message string) error {
	return New(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) error {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) error {
	return New(http.StatusNotFound, message)
}

func InternalServerError(message string) error {
	return New(http.StatusInternalServerError, message)
}

// Gateway errors surface before any booking write and are the only failures
// allowed to turn into a non-200 response once a customer has paid.
func GatewayUnavailable(message string) error {
	return New(http.StatusBadGateway, message)
}

func GatewayResponseInvalid(message string) error {
	return New(http.StatusBadGateway, message)
}

// BookingCreationFailed and PaymentRecordCreationFailed never surface as HTTP
// failures; they are folded into the structured reconciliation result.
func BookingCreationFailed(message string) error {
	return New(http.StatusFailedDependency, message)
}

func PaymentRecordCreationFailed(message string) error {
	return New(http.StatusFailedDependency, message)
}

func CodeOf(err error) int {
	if e, ok := err.(*ErrorWithCode); ok {
		return e.Code
	}
	return http.StatusInternalServerError
}
