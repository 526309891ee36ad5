package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/storekit/filestore/pkg/logger"
	"github.com/storekit/filestore/pkg/objectkey"
)

// Ensure LocalProvider implements Provider.
var _ Provider = (*LocalProvider)(nil)

// LocalProvider implements Provider on the local filesystem. It is the
// development counterpart of S3Provider: same key generation, same error
// taxonomy, no signing authority (presigned URLs degrade to plain public
// URLs). All operations are confined to baseDir.
type LocalProvider struct {
	baseDir string
	baseURL string
	logger  *slog.Logger
}

// LocalOption defines a function that configures LocalProvider.
type LocalOption func(*LocalProvider)

// WithLocalLogger configures the logger. Defaults to a discard logger.
func WithLocalLogger(l *slog.Logger) LocalOption {
	return func(p *LocalProvider) {
		p.logger = l
	}
}

// NewLocalProvider creates a filesystem-backed provider. baseDir is resolved
// to an absolute path and created if missing; baseURL is the prefix for
// derived public URLs (e.g. "/static" or "https://example.com/files").
func NewLocalProvider(baseDir, baseURL string, opts ...LocalOption) (*LocalProvider, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: missing required local configuration: base directory", ErrInvalidInput)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve base directory: %v", ErrUnexpectedState, err)
	}
	if err := os.MkdirAll(absBaseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create base directory: %v", ErrUnexpectedState, err)
	}

	p := &LocalProvider{
		baseDir: absBaseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Upload writes the file under a generated key within the base directory.
func (p *LocalProvider) Upload(ctx context.Context, file UploadFile) (*UploadResult, error) {
	if file.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required for upload", ErrInvalidInput)
	}

	body, err := normalizeContent(file.Content)
	if err != nil {
		return nil, err
	}

	key := objectkey.Generate(file.Filename)

	path, err := p.resolveKey(key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return nil, fmt.Errorf("%w: write object %s: %v", ErrUnexpectedState, key, err)
	}

	p.logger.InfoContext(ctx, "file uploaded", logger.Key(key), logger.Size(len(body)))

	return &UploadResult{URL: p.publicURL(key), Key: key}, nil
}

// Delete removes each referenced file. Keys are validated before any removal;
// per-item filesystem failures are logged and swallowed.
func (p *LocalProvider) Delete(ctx context.Context, files ...FileRef) error {
	for _, f := range files {
		if f.Key == "" {
			return fmt.Errorf("%w: file key is required for delete", ErrInvalidInput)
		}
	}

	for _, f := range files {
		path, err := p.resolveKey(f.Key)
		if err == nil {
			err = os.Remove(path)
		}
		if err != nil {
			p.logger.WarnContext(ctx, "failed to delete file", logger.Key(f.Key), logger.Error(err))
			continue
		}
		p.logger.InfoContext(ctx, "file deleted", logger.Key(f.Key))
	}

	return nil
}

// PresignedDownloadURL returns the plain public URL; the local backend has no
// signing authority. The object must exist.
func (p *LocalProvider) PresignedDownloadURL(ctx context.Context, file FileRef) (string, error) {
	if file.Key == "" {
		return "", fmt.Errorf("%w: file key is required for presigned download url", ErrInvalidInput)
	}

	path, err := p.resolveKey(file.Key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, file.Key)
		}
		return "", fmt.Errorf("%w: stat object %s: %v", ErrUnexpectedState, file.Key, err)
	}

	return p.publicURL(file.Key), nil
}

// PresignedUploadURL generates a key for the filename and returns the URL the
// file will be served from once written.
func (p *LocalProvider) PresignedUploadURL(ctx context.Context, filename string) (*UploadResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required for presigned upload url", ErrInvalidInput)
	}

	key := objectkey.Generate(filename)
	return &UploadResult{URL: p.publicURL(key), Key: key}, nil
}

// GetAsBuffer reads the full file into memory.
func (p *LocalProvider) GetAsBuffer(ctx context.Context, file FileRef) ([]byte, error) {
	path, err := p.resolveRead(file)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, file.Key)
		}
		return nil, fmt.Errorf("%w: read object %s: %v", ErrUnexpectedState, file.Key, err)
	}

	return data, nil
}

// GetDownloadStream opens the file for reading. The caller owns the stream.
func (p *LocalProvider) GetDownloadStream(ctx context.Context, file FileRef) (io.ReadCloser, error) {
	path, err := p.resolveRead(file)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, file.Key)
		}
		return nil, fmt.Errorf("%w: open object %s: %v", ErrUnexpectedState, file.Key, err)
	}

	return f, nil
}

func (p *LocalProvider) resolveRead(file FileRef) (string, error) {
	if file.Key == "" {
		return "", fmt.Errorf("%w: file key is required", ErrInvalidInput)
	}
	return p.resolveKey(file.Key)
}

// resolveKey confines the key to the base directory. Generated keys are flat
// and safe by construction, but caller-supplied keys are untrusted.
func (p *LocalProvider) resolveKey(key string) (string, error) {
	path := filepath.Join(p.baseDir, filepath.Clean(key))

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolve object path: %v", ErrUnexpectedState, err)
	}
	if !strings.HasPrefix(abs, p.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: invalid file key: %s", ErrInvalidInput, key)
	}

	return abs, nil
}

func (p *LocalProvider) publicURL(key string) string {
	return p.baseURL + "/" + key
}
