// Package storage implements the file-provider contract consumed by the
// surrounding framework's file module, backed by Amazon S3 (or any
// S3-compatible service) or the local filesystem.
//
// Every stored object is named by a generated key (see pkg/objectkey), never
// by the caller-supplied filename. The original filename survives only as
// percent-encoded object metadata. This avoids request-signature mismatches
// that non-ASCII filenames cause on S3-compatible backends.
//
// # Architecture
//
// The Provider interface exposes six operations:
//   - Upload: store content under a generated key, return key + public URL
//   - Delete: best-effort removal of one or more keys
//   - PresignedDownloadURL: signed GET URL, 24 hour validity
//   - PresignedUploadURL: signed PUT URL, 15 minute validity
//   - GetAsBuffer: full in-memory read
//   - GetDownloadStream: streaming read
//
// Providers are stateless beyond their construction-time configuration, so a
// single instance is safe for concurrent use. No retries are attempted; a
// failed store request surfaces immediately as ErrUnexpectedState.
//
// # Usage
//
// Wiring the S3 provider from the environment:
//
//	var cfg storage.S3Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	provider, err := storage.NewS3Provider(ctx, cfg,
//		storage.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	res, err := provider.Upload(ctx, storage.UploadFile{
//		Filename: "invoice Ü#1.pdf",
//		Content:  pdfBytes,
//		MIMEType: "application/pdf",
//	})
//	// res.Key:  prod_1724919000123_01J6AYVJ5NWZF8T4V0Q2XKQ9RD.pdf
//	// res.URL:  https://bucket.s3.eu-central-1.amazonaws.com/prod_...pdf
//
// Self-hosted S3-compatible services need a custom endpoint and usually
// path-style addressing:
//
//	provider, err := storage.NewS3Provider(ctx, storage.S3Config{
//		AccessKeyID:     "minio",
//		SecretAccessKey: "minio123",
//		Region:          "us-east-1",
//		Bucket:          "media",
//		Endpoint:        "http://localhost:9000",
//		ForcePathStyle:  true,
//	})
//
// For development, LocalProvider offers the same contract on the local
// filesystem:
//
//	provider, err := storage.NewLocalProvider("./uploads", "/static")
//
// # Error Handling
//
// All failures wrap one of three sentinels: ErrInvalidInput for missing or
// malformed caller data, ErrNotFound for absent objects on read, and
// ErrUnexpectedState for any underlying store failure. Callers branch with
// errors.Is.
package storage
