package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"mediashelf/internal/config"
	"mediashelf/internal/model"
)

const (
	avatarSize   = 400
	posterWidth  = 600
	posterHeight = 900
	jpegQuality  = 85

	imageCacheControl = "public, max-age=31536000, immutable"
	contentTypeJPEG   = "image/jpeg"
)

// MediaService handles image storage on Cloudflare R2: user avatars uploaded
// directly, and catalog posters mirrored by the worker so feed clients never
// hotlink the external catalog's CDN.
type MediaService struct {
	s3Client   *s3.Client
	httpClient *http.Client
	bucket     string
	publicURL  string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:   s3Client,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		bucket:     cfg.R2BucketName,
		publicURL:  strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadAvatar enforces size/type, normalizes to a square JPEG, and uploads.
func (s *MediaService) UploadAvatar(ctx context.Context, userID int64, data []byte) (*model.UploadResult, error) {
	if err := validateImage(data, model.MaxAvatarSizeBytes); err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, avatarSize, avatarSize)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d-%s.jpg", model.AvatarFolder, userID, uuid.NewString())
	if err := s.putObject(ctx, key, jpegBytes); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", s.publicURL, key)
	log.Printf("[MediaService] UploadAvatar OK: user=%d key=%s bytes=%d", userID, key, len(jpegBytes))
	return &model.UploadResult{Key: key, URL: url}, nil
}

// MirrorPoster fetches a poster from the external catalog's CDN, normalizes
// it, and stores a local copy. Returns the public URL of the mirror.
func (s *MediaService) MirrorPoster(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build poster request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch poster: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch poster: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, model.MaxAvatarSizeBytes+1))
	if err != nil {
		return "", fmt.Errorf("read poster: %w", err)
	}
	if err := validateImage(data, model.MaxAvatarSizeBytes); err != nil {
		return "", err
	}

	jpegBytes, err := resizeToJPEG(data, posterWidth, posterHeight)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.jpg", model.PosterFolder, uuid.NewString())
	if err := s.putObject(ctx, key, jpegBytes); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s", s.publicURL, key)
	log.Printf("[MediaService] MirrorPoster OK: key=%s bytes=%d", key, len(jpegBytes))
	return url, nil
}

// DeleteObject removes an object by key.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from r2: %w", err)
	}
	return nil
}

func validateImage(data []byte, maxSize int64) error {
	if int64(len(data)) > maxSize {
		return model.ErrImageTooLarge
	}
	if len(data) == 0 {
		return model.ErrInvalidImage
	}
	contentType := http.DetectContentType(data[:min(len(data), 512)])
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return nil
	}
	return model.ErrInvalidImage
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrInvalidImage
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentTypeJPEG),
		CacheControl: aws.String(imageCacheControl),
	})
	if err != nil {
		return fmt.Errorf("upload to r2: %w", err)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
