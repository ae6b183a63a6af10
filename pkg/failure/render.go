package failure

import (
	"fmt"
	"strings"
)

// Render returns the log line for f. The format of each kind is fixed.
func Render(f Failure) string {
	switch e := f.(type) {
	case *APIError:
		s := fmt.Sprintf("API Error %d: %s", e.Status, e.message)
		if e.RequestID != "" {
			s += fmt.Sprintf(" (Request ID: %s)", e.RequestID)
		}
		return s
	case *NetworkError:
		return fmt.Sprintf("Network Error (%s): %s", e.Detail, e.message)
	case *ParseError:
		return fmt.Sprintf("Parse Error in %s: %s", e.Source, e.message)
	case *ValidationError:
		return fmt.Sprintf("Validation Error: %s (Fields: %s)", e.message, strings.Join(e.Fields, ", "))
	case *AuthenticationError:
		return fmt.Sprintf("Authentication Error: %s (User ID: %s)", e.message, e.UserID)
	case *AuthorizationError:
		return fmt.Sprintf("Authorization Error: %s (Resource: %s) (Action: %s)", e.message, e.Resource, e.Action)
	case *RateLimitError:
		return fmt.Sprintf("Rate Limit Error: %s (Retry After: %ds)", e.message, e.RetryAfterSeconds)
	case *DatabaseError:
		return fmt.Sprintf("Database Error: %s (Operation: %s)", e.message, e.Operation)
	case *ConfigurationError:
		return fmt.Sprintf("Configuration Error: %s (Config Key: %s)", e.message, e.ConfigKey)
	case *ExternalServiceError:
		return fmt.Sprintf("External Service Error (%s): %s", e.ServiceName, e.message)
	case *FileNotFoundError:
		return fmt.Sprintf("File Not Found Error: %s (Path: %s)", e.message, e.Path)
	case nil:
		return "<nil>"
	default:
		// unreachable: Failure is sealed
		return f.Message()
	}
}
