package storage

import (
	"context"
	"io"
)

// UploadFile describes a file to be stored. Content accepts raw bytes,
// a string (decoded as base64 when it looks like base64), or an io.Reader;
// see normalizeContent for the exact rules.
type UploadFile struct {
	Filename string
	Content  any
	MIMEType string
}

// UploadResult is returned by Upload and PresignedUploadURL. Key is the
// generated object key; URL is the externally visible location of the object
// (public URL for uploads, signed PUT URL for presigned uploads).
type UploadResult struct {
	URL string
	Key string
}

// FileRef identifies a stored object by its key.
type FileRef struct {
	Key string
}

// Provider is the file-provider contract consumed by the surrounding
// framework's file module. Implementations hold no mutable state beyond
// their construction-time configuration, so a single instance is safe for
// concurrent use.
type Provider interface {
	// Upload stores the file under a freshly generated key and returns the
	// key together with the object's public URL.
	Upload(ctx context.Context, file UploadFile) (*UploadResult, error)

	// Delete removes one or more objects. Keys are validated up front;
	// store-side failures for individual keys are logged and swallowed so
	// the remaining deletions still proceed.
	Delete(ctx context.Context, files ...FileRef) error

	// PresignedDownloadURL returns a signed GET URL valid for 24 hours.
	PresignedDownloadURL(ctx context.Context, file FileRef) (string, error)

	// PresignedUploadURL returns a signed PUT URL valid for 15 minutes,
	// keyed by the same generation scheme as Upload.
	PresignedUploadURL(ctx context.Context, filename string) (*UploadResult, error)

	// GetAsBuffer reads the full object into memory.
	GetAsBuffer(ctx context.Context, file FileRef) ([]byte, error)

	// GetDownloadStream returns the object's content as a stream. The
	// caller owns the returned ReadCloser.
	GetDownloadStream(ctx context.Context, file FileRef) (io.ReadCloser, error)
}
