package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ashasetu-backend/shared/config"
)

// StorageService stores profile pictures in a MinIO bucket.
type StorageService struct {
	client     *minio.Client
	bucketName string
	baseURL    string
}

// NewStorageService connects to MinIO and ensures the avatar bucket exists.
// Returns nil (no error) when object storage is disabled in config.
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if !cfg.MinIOEnabled {
		log.Println("ℹ️  Object storage disabled, profile picture upload unavailable")
		return nil, nil
	}

	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %v", err)
	}

	minioClient, err := minio.New(parsedURL.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	service := &StorageService{
		client:     minioClient,
		bucketName: cfg.MinIOBucketName,
		baseURL:    strings.TrimRight(cfg.MinIOServerURL, "/"),
	}

	if err := service.initializeBucket(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *StorageService) initializeBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("✅ MinIO bucket '%s' created successfully", s.bucketName)
	}

	return nil
}

// UploadProfilePicture stores an avatar under the user's id and returns the
// object URL. Any previous avatar with a different extension is left in
// place; the profile row only references the latest URL.
func (s *StorageService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, filename, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		return "", fmt.Errorf("unsupported image type: %s", ext)
	}

	objectName := fmt.Sprintf("avatars/%s%s", userID, ext)

	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %v", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucketName, objectName), nil
}
