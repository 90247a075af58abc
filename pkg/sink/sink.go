// Package sink writes output artifacts to their destination.
//
// A target is either a local path, "-" for stdout, or an object URL of the
// form s3://bucket/key which is uploaded to any S3-compatible store (AWS S3,
// MinIO) through minio-go.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/matzehuels/graphpage/pkg/errors"
)

const s3Scheme = "s3://"

// Writer writes one artifact.
type Writer interface {
	Write(ctx context.Context, data []byte) error
	// String describes the destination for status output.
	String() string
}

// S3Config holds the connection settings for s3:// targets.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Open returns the writer for target.
func Open(target string, cfg S3Config) (Writer, error) {
	if target == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty output target")
	}
	if bucket, key, ok := ParseS3URL(target); ok {
		return NewS3Writer(cfg, bucket, key)
	}
	if target == "-" {
		return &StreamWriter{W: os.Stdout, Name: "stdout"}, nil
	}
	return &FileWriter{Path: target}, nil
}

// ParseS3URL splits an s3://bucket/key target. ok is false for anything else,
// including URLs missing a bucket or key.
func ParseS3URL(target string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(target, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", false
	}
	return bucket, key, true
}

// FileWriter writes to a local file, creating parent directories.
type FileWriter struct {
	Path string
}

// Write implements Writer.
func (w *FileWriter) Write(_ context.Context, data []byte) error {
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(w.Path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", w.Path)
	}
	return nil
}

func (w *FileWriter) String() string { return w.Path }

// StreamWriter writes to an io.Writer such as stdout.
type StreamWriter struct {
	W    io.Writer
	Name string
}

// Write implements Writer.
func (w *StreamWriter) Write(_ context.Context, data []byte) error {
	if _, err := w.W.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", w.Name)
	}
	return nil
}

func (w *StreamWriter) String() string { return w.Name }

// S3Writer uploads to an S3-compatible object store.
type S3Writer struct {
	client *minio.Client
	bucket string
	key    string
}

// NewS3Writer creates a writer for bucket/key.
func NewS3Writer(cfg S3Config, bucket, key string) (*S3Writer, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "s3 endpoint is required for %s%s/%s", s3Scheme, bucket, key)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "init s3 client")
	}
	return &S3Writer{client: client, bucket: bucket, key: key}, nil
}

// Write implements Writer.
func (w *S3Writer) Write(ctx context.Context, data []byte) error {
	_, err := w.client.PutObject(ctx, w.bucket, w.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(w.key),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "upload %s", w)
	}
	return nil
}

func (w *S3Writer) String() string { return fmt.Sprintf("%s%s/%s", s3Scheme, w.bucket, w.key) }

// ContentType guesses the MIME type from the file extension.
func ContentType(name string) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".dot", ".gv":
		return "text/vnd.graphviz; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case "":
		return "application/octet-stream"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
