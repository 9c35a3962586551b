package statement

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/cobranca-ops/fidc-backoffice/internal/platform/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Source reads bank-statement exports dropped into an S3-compatible bucket.
// Exports live under <pending prefix>/<counterparty id>/ and are moved to the
// processed prefix once reduced, so a crashed run re-reads at most one batch.
type S3Source struct {
	client          *minio.Client
	bucket          string
	pendingPrefix   string
	processedPrefix string
}

var _ portsvc.StatementSource = (*S3Source)(nil)

// NewS3Source connects to the statement bucket.
func NewS3Source(cfg *config.Config) (*S3Source, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build statement storage client: %w", err)
	}
	return &S3Source{
		client:          client,
		bucket:          cfg.S3Bucket,
		pendingPrefix:   cfg.S3PendingPrefix,
		processedPrefix: cfg.S3ProcessedPrefix,
	}, nil
}

// PullStatements lists and reduces the counterparty's pending exports. An
// export that cannot be parsed fails alone; the remaining batches are still
// returned.
func (s *S3Source) PullStatements(ctx context.Context, counterparty domain.Counterparty) ([]portsvc.StatementBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	prefix := s.pendingPrefix + counterparty.CounterpartyID + "/"

	batches := []portsvc.StatementBatch{}
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, &apperrors.NetworkError{Op: "statement list", Err: object.Err}
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		lines, err := s.reduceObject(ctx, counterparty.CounterpartyID, object.Key)
		if err != nil {
			if apperrors.IsRetryable(err) {
				return nil, err
			}
			logger.Error("Skipping unparsable statement export", "object", object.Key, "error", err)
			continue
		}
		batches = append(batches, portsvc.StatementBatch{Object: object.Key, Lines: lines})
	}
	return batches, nil
}

func (s *S3Source) reduceObject(ctx context.Context, counterpartyID, key string) ([]domain.StatementLine, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &apperrors.NetworkError{Op: "statement fetch", Err: err}
	}
	defer object.Close()

	switch strings.ToLower(path.Ext(key)) {
	case ".csv":
		lines, err := parseCSV(counterpartyID, object)
		if err != nil {
			return nil, &apperrors.DataParseError{Source: key, Err: err}
		}
		return lines, nil
	case ".xlsx":
		data, err := io.ReadAll(object)
		if err != nil {
			return nil, &apperrors.NetworkError{Op: "statement fetch", Err: err}
		}
		lines, err := parseXLSX(counterpartyID, data)
		if err != nil {
			return nil, &apperrors.DataParseError{Source: key, Err: err}
		}
		return lines, nil
	default:
		return nil, &apperrors.DataParseError{Source: key, Err: fmt.Errorf("unsupported export format %q", path.Ext(key))}
	}
}

// ArchiveStatement moves a processed export out of the pending prefix. S3 has
// no rename, so this is copy then delete.
func (s *S3Source) ArchiveStatement(ctx context.Context, object string) error {
	destination := s.processedPrefix + strings.TrimPrefix(object, s.pendingPrefix)

	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: destination},
		minio.CopySrcOptions{Bucket: s.bucket, Object: object},
	)
	if err != nil {
		return &apperrors.NetworkError{Op: "statement archive copy", Err: err}
	}
	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return &apperrors.NetworkError{Op: "statement archive delete", Err: err}
	}
	return nil
}
