package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"map-editor/config"
	"map-editor/logger"
)

// ImageStore uploads landmark images to a MinIO bucket and hands back public URLs
type ImageStore struct {
	client    *minio.Client
	bucket    string
	returnURL string
	logger    *slog.Logger
	now       func() time.Time
}

// NewImageStore connects to MinIO and checks that the endpoint answers
func NewImageStore(ctx context.Context, cfg config.MinioConfig) (*ImageStore, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("MinIO configuration missing in environment variables")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	store := &ImageStore{
		client:    client,
		bucket:    cfg.BucketName,
		returnURL: strings.TrimRight(cfg.ReturnURL, "/"),
		logger:    logger.L(),
		now:       time.Now,
	}
	store.logger.Info("minio_ready", "endpoint", cfg.Endpoint, "bucket", cfg.BucketName)
	return store, nil
}

// Upload stores one landmark image and returns its public URL
func (s *ImageStore) Upload(ctx context.Context, landmarkID, fileName string, data []byte) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	objectName := imageObjectName(landmarkID, fileName, s.now())
	info, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
		UserMetadata: map[string]string{
			"filename": fileName,
			"landmark": landmarkID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	s.logger.Info("landmark_image_uploaded", "object", objectName, "size", info.Size)
	return fmt.Sprintf("%s/%s/%s", s.returnURL, s.bucket, objectName), nil
}

func (s *ImageStore) ensureBucket(ctx context.Context) error {
	err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: "us-east-1"})
	if err == nil {
		return nil
	}
	exists, errBucketExists := s.client.BucketExists(ctx, s.bucket)
	if errBucketExists != nil {
		return fmt.Errorf("failed to check bucket existence: %w", errBucketExists)
	}
	if !exists {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// imageObjectName builds landmarks/<id>/<timestamp>_<file>, keeping only the base name of file
func imageObjectName(landmarkID, fileName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		base = "image"
	}
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("landmarks/%s/%s_%s", landmarkID, at.UTC().Format("20060102150405"), base)
}
