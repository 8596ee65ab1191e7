// Package backup exports snapshots of the document store to S3-compatible
// object storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
)

// ObjectPutter is the part of the S3 client the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot is the exported file layout.
type Snapshot struct {
	TakenAt     time.Time                        `json:"takenAt"`
	Collections map[string][]repository.Document `json:"collections"`
}

// Result describes one uploaded snapshot.
type Result struct {
	Bucket    string         `json:"bucket"`
	Key       string         `json:"key"`
	Size      int64          `json:"size"`
	SHA256    string         `json:"sha256"`
	ETag      string         `json:"etag,omitempty"`
	Documents map[string]int `json:"documents"`
}

// Exporter writes the whole store as one JSON object.
type Exporter struct {
	store  repository.DocumentStore
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
	logger zerolog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(store repository.DocumentStore, client ObjectPutter, bucket, prefix string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

// NewS3Client builds an S3 client from cfg. A non-empty Endpoint targets an
// S3-compatible server instead of AWS.
func NewS3Client(ctx context.Context, cfg config.BackupConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Export reads every collection and uploads the snapshot.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	snap := Snapshot{
		TakenAt:     e.now().UTC(),
		Collections: make(map[string][]repository.Document, len(repository.Collections)),
	}
	counts := make(map[string]int, len(repository.Collections))

	for _, c := range repository.Collections {
		docs, err := e.store.Query(ctx, c, repository.Query{OrderBy: "id"})
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c, err)
		}
		snap.Collections[c] = docs
		counts[c] = len(docs)
	}

	encoded, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	sum := crypto.Sum(encoded)

	key := path.Join(e.prefix, snap.TakenAt.Format("20060102T150405Z")+".json")
	out, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(encoded),
		ContentLength: aws.Int64(sum.Size),
		ContentType:   aws.String("application/json"),
		ContentMD5:    aws.String(sum.ContentMD5),
		Metadata:      map[string]string{"sha256": sum.SHA256},
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	res := &Result{
		Bucket:    e.bucket,
		Key:       key,
		Size:      sum.Size,
		SHA256:    sum.SHA256,
		ETag:      aws.ToString(out.ETag),
		Documents: counts,
	}
	e.logger.Info().
		Str("bucket", res.Bucket).
		Str("key", res.Key).
		Int64("size", res.Size).
		Msg("snapshot exported")
	return res, nil
}
