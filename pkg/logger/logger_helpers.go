package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

// Helper functions for common field types
func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Int64(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

func Strings(key string, values []string) zap.Field {
	return zap.Strings(key, values)
}

// FailureFields describes a failed operation: the error, success=false and,
// for classified failures, the failure kind.
func FailureFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err), zap.Bool(FieldSuccess, false)}
	if k := failure.KindOf(err); k != 0 {
		fields = append(fields, zap.String(FieldKind, k.String()))
	}
	return fields
}
