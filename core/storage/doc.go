// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so exported
// workbooks can be published to AWS S3 or a self-hosted MinIO instance, and so
// storage interactions can be mocked in tests (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: EnsureBucket creates the export bucket on first use.
//   - PutObject: uploads an exported workbook.
//   - StatObject / GetObject: look up and download a published export.
//   - ListObjects: lists published exports under a prefix.
//   - RemoveObject / RemoveObjects: delete one export or prune old ones.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
//	    return err
//	}
package storage
