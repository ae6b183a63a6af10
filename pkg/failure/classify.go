package failure

import (
	"errors"
	"net/http"
)

// As returns the Failure in err's chain, if any.
func As(err error) (Failure, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the kind of the first Failure in err's chain, or 0.
func KindOf(err error) Kind {
	if f, ok := As(err); ok {
		return f.Kind()
	}
	return 0
}

// IsTimeout reports whether err is a NetworkError raised by deadline expiry.
func IsTimeout(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Timeout()
}

// IsTransient reports whether a caller may reasonably retry the operation
// that produced err: network failures, 5xx and 429 responses, rate limiting
// and unavailable external services.
func IsTransient(err error) bool {
	f, ok := As(err)
	if !ok {
		return false
	}
	switch e := f.(type) {
	case *NetworkError, *RateLimitError, *ExternalServiceError:
		return true
	case *APIError:
		return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// HTTPStatus maps err to the status the service answers with.
func HTTPStatus(err error) int {
	f, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e := f.(type) {
	case *APIError:
		if e.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case *NetworkError:
		if e.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case *ParseError:
		return http.StatusBadGateway
	case *ValidationError:
		return http.StatusUnprocessableEntity
	case *AuthenticationError:
		return http.StatusUnauthorized
	case *AuthorizationError:
		return http.StatusForbidden
	case *RateLimitError:
		return http.StatusTooManyRequests
	case *ExternalServiceError:
		return http.StatusServiceUnavailable
	case *FileNotFoundError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
