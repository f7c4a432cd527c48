// Package archive stores raw Gaze owner-info responses so a flagged
// reconciliation can be reviewed against exactly what Gaze returned.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cog_mailing_sync/internal/gaze/transport"
	"cog_mailing_sync/platform/config"
)

// PresignedURLTTL is how long a snapshot download link stays valid.
const PresignedURLTTL = 15 * time.Minute

const contentTypeJSON = "application/json"

// ObjectStore is the subset of the MinIO client the archive uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
	PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, params url.Values) (*url.URL, error)
}

// Archive writes snapshots to one bucket.
type Archive struct {
	store  ObjectStore
	bucket string
}

// New creates an archive over the configured MinIO endpoint.
func New(cfg config.MinIOConfig) (*Archive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return NewWithStore(client, cfg.GetMinioBucketGazeSnapshots()), nil
}

// NewWithStore creates an archive over an existing object store.
func NewWithStore(store ObjectStore, bucket string) *Archive {
	return &Archive{store: store, bucket: bucket}
}

// EnsureBucket creates the bucket if it doesn't exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Key returns the object key of a snapshot.
func Key(parcelID string, fetchedAt time.Time) string {
	return fmt.Sprintf("gaze/%s/%s.json", url.PathEscape(parcelID), fetchedAt.UTC().Format("20060102T150405.000Z"))
}

// Put stores the raw body of a snapshot and returns its key.
func (a *Archive) Put(ctx context.Context, snap transport.Snapshot) (string, error) {
	if len(snap.Raw) == 0 {
		return "", fmt.Errorf("snapshot for %s has no body", snap.ParcelID)
	}

	key := Key(snap.ParcelID, snap.FetchedAt)
	_, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(snap.Raw), int64(len(snap.Raw)), minio.PutObjectOptions{
		ContentType: contentTypeJSON,
		UserMetadata: map[string]string{
			"parcel-id": snap.ParcelID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}
	return key, nil
}

// Open returns the stored body. The caller closes it.
func (a *Archive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := a.store.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	return obj, nil
}

// DownloadURL returns a presigned link to a stored snapshot.
func (a *Archive) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)
	u, err := a.store.PresignedGetObject(ctx, a.bucket, key, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign snapshot %s: %w", key, err)
	}
	return u.String(), expiresAt, nil
}
