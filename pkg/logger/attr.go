package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Key records an object key under the key "key".
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// Bucket records a bucket name under the key "bucket".
func Bucket(name string) slog.Attr {
	return slog.String("bucket", name)
}

// Operation records the storage operation name under the key "operation".
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// Size records a byte count under the key "size".
func Size(n int) slog.Attr {
	return slog.Int("size", n)
}
