package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/event"
)

// ObjectAPI is the subset of the S3 client the uploader calls.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Source produces a consistent copy of a database at dest.
type Source interface {
	Snapshot(ctx context.Context, dest string) error
}

type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Uploader copies the media store to S3-compatible storage after each
// successful refresh, keeping the newest Keep copies.
type Uploader struct {
	client ObjectAPI
	source Source
	bucket string
	prefix string
	keep   int
	log    hclog.Logger
	now    func() time.Time
}

// NewClient builds an S3 client for any S3-compatible endpoint.
func NewClient(ctx context.Context, cfg config.SnapshotConfig) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("snapshot storage configuration is incomplete")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

func NewUploader(client ObjectAPI, source Source, cfg config.SnapshotConfig, log hclog.Logger) *Uploader {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Uploader{
		client: client,
		source: source,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		keep:   cfg.Keep,
		log:    log,
		now:    time.Now,
	}
}

// Subscribe uploads a snapshot whenever a refresh completes.
func (u *Uploader) Subscribe(bus event.Bus) string {
	return bus.Subscribe(event.EventRefreshComplete, func(e event.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := u.Upload(ctx); err != nil {
			u.log.Error("snapshot upload failed", "error", err)
		}
	})
}

// Upload stores one snapshot and returns its key.
func (u *Uploader) Upload(ctx context.Context) (string, error) {
	dir, err := os.MkdirTemp("", "stamper_snapshot_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "media.db")
	if err := u.source.Snapshot(ctx, path); err != nil {
		return "", fmt.Errorf("copy media store: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	key := fmt.Sprintf("%s%s.db", u.prefix, u.now().UTC().Format("20060102_150405"))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	u.log.Info("snapshot uploaded", "bucket", u.bucket, "key", key)

	if u.keep > 0 {
		if err := u.prune(ctx); err != nil {
			u.log.Warn("pruning old snapshots failed", "error", err)
		}
	}
	return key, nil
}

// List returns stored snapshots, newest first.
func (u *Uploader) List(ctx context.Context) ([]Object, error) {
	out, err := u.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.bucket),
		Prefix: aws.String(u.prefix),
	})
	if err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(out.Contents))
	for _, obj := range out.Contents {
		o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
		if obj.LastModified != nil {
			o.LastModified = *obj.LastModified
		}
		objects = append(objects, o)
	}
	// keys embed the upload time, so they sort chronologically
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

func (u *Uploader) prune(ctx context.Context) error {
	objects, err := u.List(ctx)
	if err != nil {
		return err
	}
	if len(objects) <= u.keep {
		return nil
	}
	for _, obj := range objects[u.keep:] {
		_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(obj.Key),
		})
		if err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
		u.log.Debug("old snapshot deleted", "key", obj.Key)
	}
	return nil
}
