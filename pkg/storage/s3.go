package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/storekit/filestore/pkg/logger"
	"github.com/storekit/filestore/pkg/objectkey"
)

const (
	// metadataOriginalFilename carries the percent-encoded caller-supplied
	// filename on every uploaded object. The original name is never part of
	// the object key.
	metadataOriginalFilename = "original-filename"

	downloadURLExpiry = 24 * time.Hour
	uploadURLExpiry   = 15 * time.Minute
)

// Ensure S3Provider implements Provider.
var _ Provider = (*S3Provider)(nil)

// S3Client defines the S3 operations used by S3Provider.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Presigner defines the presigning operations used by S3Provider.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Config contains configuration for the S3 provider.
type S3Config struct {
	AccessKeyID     string `env:"STORAGE_ACCESS_KEY_ID,required"`
	SecretAccessKey string `env:"STORAGE_SECRET_ACCESS_KEY,required"`
	Region          string `env:"STORAGE_REGION,required"`
	Bucket          string `env:"STORAGE_BUCKET,required"`

	// Endpoint points at an S3-compatible service (MinIO, R2, Wasabi).
	// Scheme is optional and defaults to https when deriving public URLs.
	Endpoint string `env:"STORAGE_ENDPOINT"`

	// ForcePathStyle places the bucket in the URL path instead of the
	// subdomain. Required by most self-hosted S3-compatible services.
	ForcePathStyle bool `env:"STORAGE_FORCE_PATH_STYLE"`

	// FileURL overrides public URL derivation entirely, e.g. a CDN origin.
	FileURL string `env:"STORAGE_FILE_URL"`

	// SignatureVersion is accepted for configuration compatibility with
	// other providers; the SDK always signs with Signature Version 4.
	SignatureVersion string `env:"STORAGE_SIGNATURE_VERSION"`
}

// Validate reports every missing required field at once.
func (c S3Config) Validate() error {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "access key id")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if c.Region == "" {
		missing = append(missing, "region")
	}
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required s3 configuration: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// S3Provider implements Provider for Amazon S3 and S3-compatible services.
// It is safe for concurrent use.
type S3Provider struct {
	client         S3Client
	presigner      S3Presigner
	bucket         string
	region         string
	endpoint       string
	fileURL        string
	forcePathStyle bool
	maxBufferSize  int64
	logger         *slog.Logger
}

// S3Option defines a function that configures S3Provider.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient    *http.Client
	s3Client      S3Client
	presigner     S3Presigner
	logger        *slog.Logger
	maxBufferSize int64
}

// WithS3Client sets a custom pre-configured S3 client.
// Useful for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithPresigner sets a custom presigner. Required when WithS3Client supplies
// a client that is not a *s3.Client, since no presign client can be derived
// from it.
func WithPresigner(presigner S3Presigner) S3Option {
	return func(o *s3Options) {
		o.presigner = presigner
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithLogger configures the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) S3Option {
	return func(o *s3Options) {
		o.logger = l
	}
}

// WithMaxBufferSize caps how many bytes GetAsBuffer will accumulate in
// memory. Zero (the default) means unbounded.
func WithMaxBufferSize(n int64) S3Option {
	return func(o *s3Options) {
		o.maxBufferSize = n
	}
}

// NewS3Provider creates a provider for the given bucket. Construction fails
// with ErrInvalidInput when any required config field is missing; the error
// names every missing field.
func NewS3Provider(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: load aws config: %v", ErrUnexpectedState, err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(normalizeEndpointURL(cfg.Endpoint))
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	presigner := options.presigner
	if presigner == nil {
		if realClient, ok := client.(*s3.Client); ok {
			presigner = s3.NewPresignClient(realClient)
		}
	}

	log := options.logger
	if log == nil {
		log = logger.Discard()
	}

	return &S3Provider{
		client:         client,
		presigner:      presigner,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		endpoint:       cfg.Endpoint,
		fileURL:        cfg.FileURL,
		forcePathStyle: cfg.ForcePathStyle,
		maxBufferSize:  options.maxBufferSize,
		logger:         log,
	}, nil
}

// Upload stores the file under a generated key and returns its public URL.
// The ACL directive is omitted in path-style mode because several
// S3-compatible backends reject canned ACLs on path-style requests.
func (p *S3Provider) Upload(ctx context.Context, file UploadFile) (*UploadResult, error) {
	if file.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required for upload", ErrInvalidInput)
	}

	body, err := normalizeContent(file.Content)
	if err != nil {
		return nil, err
	}

	key := objectkey.Generate(file.Filename)

	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metadataOriginalFilename: url.PathEscape(file.Filename),
		},
	}
	if !p.forcePathStyle {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		p.logger.ErrorContext(ctx, "failed to upload object", logger.Key(key), logger.Error(err))
		return nil, fmt.Errorf("%w: upload object %s: %v", ErrUnexpectedState, key, err)
	}

	p.logger.InfoContext(ctx, "file uploaded",
		logger.Key(key),
		logger.Bucket(p.bucket),
		logger.Size(len(body)))

	return &UploadResult{URL: p.publicURL(key), Key: key}, nil
}

// Delete removes each referenced object. Every key is validated before any
// deletion is attempted; after that the loop is best-effort per item, so a
// store-side failure for one key does not abort the others. The loop is
// deliberately sequential to keep log ordering simple.
func (p *S3Provider) Delete(ctx context.Context, files ...FileRef) error {
	for _, f := range files {
		if f.Key == "" {
			return fmt.Errorf("%w: file key is required for delete", ErrInvalidInput)
		}
	}

	for _, f := range files {
		_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(f.Key),
		})
		if err != nil {
			p.logger.WarnContext(ctx, "failed to delete object", logger.Key(f.Key), logger.Error(err))
			continue
		}
		p.logger.InfoContext(ctx, "file deleted", logger.Key(f.Key))
	}

	return nil
}

// PresignedDownloadURL returns a signed GET URL valid for 24 hours.
func (p *S3Provider) PresignedDownloadURL(ctx context.Context, file FileRef) (string, error) {
	if file.Key == "" {
		return "", fmt.Errorf("%w: file key is required for presigned download url", ErrInvalidInput)
	}
	if p.presigner == nil {
		return "", fmt.Errorf("%w: presigning is not configured", ErrUnexpectedState)
	}

	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(file.Key),
	}, s3.WithPresignExpires(downloadURLExpiry))
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to presign download", logger.Key(file.Key), logger.Error(err))
		return "", fmt.Errorf("%w: presign download %s: %v", ErrUnexpectedState, file.Key, err)
	}

	return req.URL, nil
}

// PresignedUploadURL returns a signed PUT URL valid for 15 minutes. The key
// is generated from the filename with the same scheme as Upload; the
// original filename is never used as the key.
func (p *S3Provider) PresignedUploadURL(ctx context.Context, filename string) (*UploadResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required for presigned upload url", ErrInvalidInput)
	}
	if p.presigner == nil {
		return nil, fmt.Errorf("%w: presigning is not configured", ErrUnexpectedState)
	}

	key := objectkey.Generate(filename)

	req, err := p.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to presign upload", logger.Key(key), logger.Error(err))
		return nil, fmt.Errorf("%w: presign upload %s: %v", ErrUnexpectedState, key, err)
	}

	return &UploadResult{URL: req.URL, Key: key}, nil
}

// GetAsBuffer reads the full object into memory. The accumulation is capped
// by WithMaxBufferSize when configured; otherwise it is unbounded.
func (p *S3Provider) GetAsBuffer(ctx context.Context, file FileRef) ([]byte, error) {
	out, err := p.getObject(ctx, file, "get object")
	if err != nil {
		return nil, err
	}
	defer func() { _ = out.Body.Close() }()

	var r io.Reader = out.Body
	if p.maxBufferSize > 0 {
		r = io.LimitReader(out.Body, p.maxBufferSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read object %s: %v", ErrUnexpectedState, file.Key, err)
	}
	if p.maxBufferSize > 0 && int64(len(data)) > p.maxBufferSize {
		return nil, fmt.Errorf("%w: object %s exceeds %d byte buffer limit", ErrUnexpectedState, file.Key, p.maxBufferSize)
	}

	return data, nil
}

// GetDownloadStream returns the object's content without buffering. The
// caller owns the returned stream.
func (p *S3Provider) GetDownloadStream(ctx context.Context, file FileRef) (io.ReadCloser, error) {
	out, err := p.getObject(ctx, file, "stream object")
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (p *S3Provider) getObject(ctx context.Context, file FileRef, operation string) (*s3.GetObjectOutput, error) {
	if file.Key == "" {
		return nil, fmt.Errorf("%w: file key is required to %s", ErrInvalidInput, operation)
	}

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(file.Key),
	})
	if err != nil {
		classified := classifyObjectError(err, operation, file.Key)
		if !errors.Is(classified, ErrNotFound) {
			p.logger.ErrorContext(ctx, "object retrieval failed",
				logger.Operation(operation),
				logger.Key(file.Key),
				logger.Error(err))
		}
		return nil, classified
	}
	if out.Body == nil {
		return nil, fmt.Errorf("%w: object %s has no body", ErrNotFound, file.Key)
	}

	return out, nil
}

// classifyObjectError maps store retrieval failures onto the error taxonomy:
// a missing object is ErrNotFound, everything else ErrUnexpectedState.
func classifyObjectError(err error, operation, key string) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}

	return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedState, operation, key, err)
}

// publicURL derives the externally visible URL for a key. Precedence:
// configured file URL, then custom endpoint (path-style or virtual-hosted),
// then the standard regional S3 pattern.
func (p *S3Provider) publicURL(key string) string {
	if p.fileURL != "" {
		return strings.TrimSuffix(p.fileURL, "/") + "/" + key
	}

	if p.endpoint != "" {
		proto, host := splitEndpoint(p.endpoint)
		if p.forcePathStyle {
			return fmt.Sprintf("%s://%s/%s/%s", proto, host, p.bucket, key)
		}
		return fmt.Sprintf("%s://%s.%s/%s", proto, p.bucket, host, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}

// splitEndpoint extracts the protocol from an endpoint string, defaulting to
// https when no scheme is present.
func splitEndpoint(endpoint string) (proto, host string) {
	proto = "https"
	host = endpoint
	if i := strings.Index(host, "://"); i >= 0 {
		proto = host[:i]
		host = host[i+3:]
	}
	return proto, strings.TrimSuffix(host, "/")
}

// normalizeEndpointURL ensures the SDK receives a scheme-qualified endpoint.
func normalizeEndpointURL(endpoint string) string {
	proto, host := splitEndpoint(endpoint)
	return proto + "://" + host
}
