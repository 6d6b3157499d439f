package errutil

import "net/http"

// CoreStatus identifies the kind of a domain error independently of transport.
type CoreStatus string

const (
	StatusBadRequest         CoreStatus = "BAD_REQUEST"
	StatusValidationFailed   CoreStatus = "VALIDATION_FAILED"
	StatusUnauthorized       CoreStatus = "UNAUTHORIZED"
	StatusForbidden          CoreStatus = "FORBIDDEN"
	StatusNotFound           CoreStatus = "NOT_FOUND"
	StatusConflict           CoreStatus = "CONFLICT"
	StatusFundsExceeded      CoreStatus = "FUNDS_EXCEEDED"
	StatusInsufficientPoints CoreStatus = "INSUFFICIENT_POINTS"
	StatusNoDonationSource   CoreStatus = "NO_DONATION_SOURCE"
	StatusHasDependents      CoreStatus = "HAS_DEPENDENTS"
	StatusInternal           CoreStatus = "INTERNAL"
	StatusUnknown            CoreStatus = "UNKNOWN"
)

// HTTPStatus converts the CoreStatus to its closest HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict, StatusFundsExceeded, StatusNoDonationSource:
		return http.StatusConflict
	case StatusInsufficientPoints, StatusHasDependents:
		return http.StatusBadRequest
	case StatusInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
