// Package failure defines the closed set of typed failures raised by the
// endpoint registry, the dispatcher and the service around them.
//
// Every variant renders to a fixed, human readable line (its Error string)
// and can forward that line to an error-level logger. Callers discriminate
// with Kind, KindOf or errors.As.
package failure

import (
	"time"

	"go.uber.org/zap"
)

// Kind identifies a failure variant.
type Kind int

const (
	KindAPI Kind = iota + 1
	KindNetwork
	KindParse
	KindValidation
	KindAuthentication
	KindAuthorization
	KindRateLimit
	KindDatabase
	KindConfiguration
	KindExternalService
	KindFileNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "ApiError"
	case KindNetwork:
		return "NetworkError"
	case KindParse:
		return "ParseError"
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindRateLimit:
		return "RateLimitError"
	case KindDatabase:
		return "DatabaseError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindExternalService:
		return "ExternalServiceError"
	case KindFileNotFound:
		return "FileNotFoundError"
	default:
		return "UnknownError"
	}
}

// ErrorLogger is the slice of a leveled logger a failure needs to report itself.
type ErrorLogger interface {
	Error(msg string, fields ...zap.Field)
}

// Failure is implemented only by the variants in this package.
type Failure interface {
	error
	Kind() Kind
	Message() string
	Timestamp() time.Time
	Log(l ErrorLogger)

	sealed()
}

type base struct {
	message   string
	timestamp time.Time
}

func newBase(message string) base {
	return base{message: message, timestamp: time.Now()}
}

func (b base) Message() string { return b.message }
func (b base) Timestamp() time.Time { return b.timestamp }
func (b base) sealed() {}

// APIError reports a non-success response, or a lookup of an endpoint that is not registered.
type APIError struct {
	base
	Status    int
	RequestID string
}

// NewAPIError builds an APIError. requestID may be empty.
func NewAPIError(message string, status int, requestID string) *APIError {
	return &APIError{base: newBase(message), Status: status, RequestID: requestID}
}

func (e *APIError) Kind() Kind { return KindAPI }
func (e *APIError) Error() string { return Render(e) }
func (e *APIError) Log(l ErrorLogger) { l.Error(Render(e)) }

// NetworkError reports a transport failure. Detail carries the underlying
// message, or TimeoutDetail when the per-call deadline fired.
type NetworkError struct {
	base
	Detail string
	cause  error
}

// TimeoutDetail is the NetworkError detail used for deadline expiry.
const TimeoutDetail = "Request timed out"

// NewNetworkError builds a NetworkError. cause may be nil.
func NewNetworkError(message, detail string, cause error) *NetworkError {
	return &NetworkError{base: newBase(message), Detail: detail, cause: cause}
}

func (e *NetworkError) Kind() Kind { return KindNetwork }
func (e *NetworkError) Error() string { return Render(e) }
func (e *NetworkError) Log(l ErrorLogger) { l.Error(Render(e)) }
func (e *NetworkError) Unwrap() error { return e.cause }

// Timeout reports whether the failure denotes deadline expiry.
func (e *NetworkError) Timeout() bool { return e.Detail == TimeoutDetail }

// ParseError reports a payload that could not be decoded or encoded.
type ParseError struct {
	base
	Source string
	cause  error
}

func NewParseError(message, source string, cause error) *ParseError {
	return &ParseError{base: newBase(message), Source: source, cause: cause}
}

func (e *ParseError) Kind() Kind { return KindParse }
func (e *ParseError) Error() string { return Render(e) }
func (e *ParseError) Log(l ErrorLogger) { l.Error(Render(e)) }
func (e *ParseError) Unwrap() error { return e.cause }

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	base
	Fields []string
}

func NewValidationError(message string, fields ...string) *ValidationError {
	f := make([]string, len(fields))
	copy(f, fields)
	return &ValidationError{base: newBase(message), Fields: f}
}

func (e *ValidationError) Kind() Kind { return KindValidation }
func (e *ValidationError) Error() string { return Render(e) }
func (e *ValidationError) Log(l ErrorLogger) { l.Error(Render(e)) }

type AuthenticationError struct {
	base
	UserID string
}

func NewAuthenticationError(message, userID string) *AuthenticationError {
	return &AuthenticationError{base: newBase(message), UserID: userID}
}

func (e *AuthenticationError) Kind() Kind { return KindAuthentication }
func (e *AuthenticationError) Error() string { return Render(e) }
func (e *AuthenticationError) Log(l ErrorLogger) { l.Error(Render(e)) }

type AuthorizationError struct {
	base
	Resource string
	Action   string
}

func NewAuthorizationError(message, resource, action string) *AuthorizationError {
	return &AuthorizationError{base: newBase(message), Resource: resource, Action: action}
}

func (e *AuthorizationError) Kind() Kind { return KindAuthorization }
func (e *AuthorizationError) Error() string { return Render(e) }
func (e *AuthorizationError) Log(l ErrorLogger) { l.Error(Render(e)) }

type RateLimitError struct {
	base
	RetryAfterSeconds int
}

func NewRateLimitError(message string, retryAfterSeconds int) *RateLimitError {
	return &RateLimitError{base: newBase(message), RetryAfterSeconds: retryAfterSeconds}
}

func (e *RateLimitError) Kind() Kind { return KindRateLimit }
func (e *RateLimitError) Error() string { return Render(e) }
func (e *RateLimitError) Log(l ErrorLogger) { l.Error(Render(e)) }

type DatabaseError struct {
	base
	Operation string
	cause     error
}

func NewDatabaseError(message, operation string, cause error) *DatabaseError {
	return &DatabaseError{base: newBase(message), Operation: operation, cause: cause}
}

func (e *DatabaseError) Kind() Kind { return KindDatabase }
func (e *DatabaseError) Error() string { return Render(e) }
func (e *DatabaseError) Log(l ErrorLogger) { l.Error(Render(e)) }
func (e *DatabaseError) Unwrap() error { return e.cause }

type ConfigurationError struct {
	base
	ConfigKey string
}

func NewConfigurationError(message, configKey string) *ConfigurationError {
	return &ConfigurationError{base: newBase(message), ConfigKey: configKey}
}

func (e *ConfigurationError) Kind() Kind { return KindConfiguration }
func (e *ConfigurationError) Error() string { return Render(e) }
func (e *ConfigurationError) Log(l ErrorLogger) { l.Error(Render(e)) }

type ExternalServiceError struct {
	base
	ServiceName string
	cause       error
}

func NewExternalServiceError(message, serviceName string, cause error) *ExternalServiceError {
	return &ExternalServiceError{base: newBase(message), ServiceName: serviceName, cause: cause}
}

func (e *ExternalServiceError) Kind() Kind { return KindExternalService }
func (e *ExternalServiceError) Error() string { return Render(e) }
func (e *ExternalServiceError) Log(l ErrorLogger) { l.Error(Render(e)) }
func (e *ExternalServiceError) Unwrap() error { return e.cause }

type FileNotFoundError struct {
	base
	Path  string
	cause error
}

func NewFileNotFoundError(message, path string, cause error) *FileNotFoundError {
	return &FileNotFoundError{base: newBase(message), Path: path, cause: cause}
}

func (e *FileNotFoundError) Kind() Kind { return KindFileNotFound }
func (e *FileNotFoundError) Error() string { return Render(e) }
func (e *FileNotFoundError) Log(l ErrorLogger) { l.Error(Render(e)) }
func (e *FileNotFoundError) Unwrap() error { return e.cause }
