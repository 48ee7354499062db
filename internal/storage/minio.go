// Package storage keeps processed images in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinIOStorage uploads images to a public-read bucket.
type MinIOStorage struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinIOStorage creates the client and makes sure the bucket exists.
// An unreachable endpoint is logged, not fatal; uploads will fail until it comes back.
func NewMinIOStorage(ctx context.Context, endpoint, publicEndpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinIOStorage{
		client:     client,
		bucket:     bucket,
		publicBase: PublicBase(endpoint, publicEndpoint, useSSL),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.ensureBucket(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Msg("could not verify image bucket")
	}

	log.Info().
		Str("endpoint", endpoint).
		Str("public_base", s.publicBase).
		Str("bucket", bucket).
		Msg("MinIO storage initialized")
	return s, nil
}

func (s *MinIOStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Action":["s3:GetObject"],"Effect":"Allow","Principal":{"AWS":["*"]},"Resource":["arn:aws:s3:::%s/*"]}]}`, s.bucket)
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	log.Info().Str("bucket", s.bucket).Msg("image bucket created")
	return nil
}

// Upload stores data under a fresh key in folder and returns its public URL.
func (s *MinIOStorage) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	key := ObjectKey(folder, time.Now(), uuid.New().String(), contentType)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	url := s.URL(key)
	log.Debug().Str("key", key).Str("url", url).Msg("image uploaded")
	return url, nil
}

// URL returns the public URL of an object.
func (s *MinIOStorage) URL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + key
}

// Delete removes the object behind url. URLs outside this bucket are ignored.
func (s *MinIOStorage) Delete(ctx context.Context, url string) error {
	key, ok := KeyFromURL(s.publicBase, s.bucket, url)
	if !ok {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	log.Debug().Str("key", key).Msg("image deleted")
	return nil
}

// HealthCheck verifies the bucket is reachable.
func (s *MinIOStorage) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio health check: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

// PublicBase returns the scheme and host images are served from.
func PublicBase(endpoint, publicEndpoint string, useSSL bool) string {
	base := strings.Trim(strings.TrimSpace(publicEndpoint), `"'`)
	if base == "" {
		base = endpoint
	}
	base = strings.TrimSuffix(base, "/")
	if strings.Contains(base, "://") {
		return base
	}
	if useSSL {
		return "https://" + base
	}
	return "http://" + base
}

// KeyFromURL is the inverse of URL.
func KeyFromURL(publicBase, bucket, url string) (string, bool) {
	key, ok := strings.CutPrefix(url, publicBase+"/"+bucket+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// ObjectKey builds "<folder>/<yyyy-mm-dd>/<id><ext>".
func ObjectKey(folder string, at time.Time, id, contentType string) string {
	ext := ".bin"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	}
	return fmt.Sprintf("%s/%s/%s%s", folder, at.UTC().Format("2006-01-02"), id, ext)
}
