package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ContentType is the media type of .xlsx workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Published describes an artifact stored in the bucket.
type Published struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

// Publisher stores artifacts in object storage under <prefix>/<run id>/.
type Publisher struct {
	client storage.Client
	bucket string
	region string
	prefix string
	logger *zap.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(client storage.Client, bucket, region, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Publish uploads artifacts of one run.
func (p *Publisher) Publish(ctx context.Context, runID string, artifacts []*Artifact) ([]Published, error) {
	if err := storage.EnsureBucket(ctx, p.client, p.bucket, p.region); err != nil {
		return nil, err
	}

	out := make([]Published, 0, len(artifacts))
	for _, a := range artifacts {
		key := path.Join(p.prefix, runID, a.FileName)
		info, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(a.Data), a.Size(), minio.PutObjectOptions{
			ContentType:  ContentType,
			UserMetadata: map[string]string{"run-id": runID},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", key, err)
		}
		p.logger.Info("Export published", zap.String("bucket", p.bucket), zap.String("key", key), zap.Int64("size", a.Size()))
		out = append(out, Published{Key: key, Size: a.Size(), ETag: info.ETag, LastModified: info.LastModified})
	}
	return out, nil
}

// List returns every published artifact.
func (p *Publisher) List(ctx context.Context) ([]Published, error) {
	var out []Published
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: p.listPrefix(), Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list exports: %w", obj.Err)
		}
		out = append(out, Published{Key: obj.Key, Size: obj.Size, ETag: obj.ETag, LastModified: obj.LastModified})
	}
	return out, nil
}

// Open returns a published artifact and its metadata. Keys outside the
// publisher's prefix are rejected.
func (p *Publisher) Open(ctx context.Context, key string) (io.ReadCloser, Published, error) {
	if err := p.checkKey(key); err != nil {
		return nil, Published{}, err
	}
	info, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, Published{}, apperror.Validation("export %s not found", key)
		}
		return nil, Published{}, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	rc, err := p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Published{}, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return rc, Published{Key: key, Size: info.Size, ETag: info.ETag, LastModified: info.LastModified}, nil
}

// Remove deletes one published artifact.
func (p *Publisher) Remove(ctx context.Context, key string) error {
	if err := p.checkKey(key); err != nil {
		return err
	}
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Prune deletes artifacts last modified before now minus olderThan and
// returns how many were removed.
func (p *Publisher) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	items, err := p.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	objects := make(chan minio.ObjectInfo, len(items))
	count := 0
	for _, it := range items {
		if it.LastModified.Before(cutoff) {
			objects <- minio.ObjectInfo{Key: it.Key}
			count++
		}
	}
	close(objects)
	if count == 0 {
		return 0, nil
	}

	failed := 0
	for rerr := range p.client.RemoveObjects(ctx, p.bucket, objects, minio.RemoveObjectsOptions{}) {
		failed++
		p.logger.Warn("Failed to prune export", zap.String("key", rerr.ObjectName), zap.Error(rerr.Err))
	}
	if failed > 0 {
		return count - failed, fmt.Errorf("failed to prune %d of %d exports", failed, count)
	}
	p.logger.Info("Exports pruned", zap.Int("count", count), zap.Duration("older_than", olderThan))
	return count, nil
}

func (p *Publisher) listPrefix() string {
	if p.prefix == "" {
		return ""
	}
	return p.prefix + "/"
}

func (p *Publisher) checkKey(key string) error {
	clean := path.Clean(key)
	if key == "" || clean != key || strings.HasPrefix(key, "/") || !strings.HasPrefix(key, p.listPrefix()) || !strings.HasSuffix(key, FileExtension) {
		return apperror.Validation("invalid export key %q", key)
	}
	if slices.Contains(strings.Split(key, "/"), "..") {
		return apperror.Validation("invalid export key %q", key)
	}
	return nil
}
