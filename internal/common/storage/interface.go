package storage

import "context"

// ObjectStorage defines the minimal object storage operations required by
// the test-case loader. It is intentionally small so we can swap
// MinIO/AWS-S3 implementations without touching business logic.
type ObjectStorage interface {
	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, bucket, objectKey string) (ObjectReader, error)

	// ListObjectsPage lists one page of object keys under a prefix.
	// Pass the page's NextContinuationToken back in to fetch the next page;
	// an empty token starts from the beginning.
	ListObjectsPage(ctx context.Context, bucket, prefix, continuationToken string) (ObjectPage, error)
}

// ObjectReader is a streaming reader for object data.
type ObjectReader interface {
	Read(p []byte) (int, error)
	Close() error
}

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
}

// ObjectPage is one page of a listing.
type ObjectPage struct {
	Objects               []ObjectInfo
	NextContinuationToken string
	IsTruncated           bool
}
