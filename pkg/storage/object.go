package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreConfig holds connection settings for an S3-compatible endpoint
type ObjectStoreConfig struct {
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey      string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey      string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL         bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	Region         string `mapstructure:"region" yaml:"region"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ObjectClient is the subset of the minio client used by ObjectStore
type ObjectClient interface {
	// ListObjects lists objects in a bucket.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	// GetObject downloads an object.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	// StatObject returns object metadata.
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// NewObjectClient creates a minio client for the configured endpoint
func NewObjectClient(cfg ObjectStoreConfig) (ObjectClient, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ResponseHeaderTimeout: timeoutDuration,
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioClientWrapper{Client: client}, nil
}

type minioClientWrapper struct {
	*minio.Client
}

func (c *minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// ObjectStore is a read-only backend over a bucket prefix
type ObjectStore struct {
	client ObjectClient
	bucket string
	prefix string // without trailing slash, may be empty
}

// NewObjectStore creates a backend rooted at bucket/prefix
func NewObjectStore(client ObjectClient, bucket, prefix string) *ObjectStore {
	return &ObjectStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Root returns the s3 URI of the root
func (s *ObjectStore) Root() string {
	if s.prefix == "" {
		return "s3://" + s.bucket
	}
	return "s3://" + s.bucket + "/" + s.prefix
}

func (s *ObjectStore) key(rel string) string {
	if s.prefix == "" {
		return rel
	}
	return s.prefix + "/" + rel
}

// List returns all objects under the prefix.
// Objects that report an error are skipped, except when the listing itself fails.
func (s *ObjectStore) List(ctx context.Context, opts ListOptions) (*Listing, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}

	listing := &Listing{}
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: opts.Recursive,
	})

	for obj := range objects {
		if obj.Err != nil {
			if obj.Key == "" {
				return nil, fmt.Errorf("failed to list %s: %w", s.Root(), obj.Err)
			}
			listing.Skipped = append(listing.Skipped, SkippedPath{Path: s.uri(obj.Key), Err: obj.Err})
			continue
		}
		// Common prefixes show up as keys ending in a slash in non-recursive listings
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		rel := strings.TrimPrefix(obj.Key, listPrefix)
		listing.Files = append(listing.Files, FileInfo{
			Path:         s.uri(obj.Key),
			Size:         obj.Size,
			ModTime:      obj.LastModified,
			RelativePath: rel,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return listing, nil
}

func (s *ObjectStore) uri(key string) string {
	return "s3://" + path.Join(s.bucket, key)
}

// Read opens an object for reading
func (s *ObjectStore) Read(ctx context.Context, rel string) (io.ReadCloser, error) {
	reader, err := s.client.GetObject(ctx, s.bucket, s.key(rel), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return reader, nil
}

// Stat returns object metadata
func (s *ObjectStore) Stat(ctx context.Context, rel string) (*FileInfo, error) {
	obj, err := s.client.StatObject(ctx, s.bucket, s.key(rel), minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return &FileInfo{
		Path:         s.uri(obj.Key),
		Size:         obj.Size,
		ModTime:      obj.LastModified,
		RelativePath: rel,
	}, nil
}

// Close releases resources (the minio client holds none)
func (s *ObjectStore) Close() error {
	return nil
}
