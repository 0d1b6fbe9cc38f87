package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ikkim/restaurant-reviews/config"
)

// PhotoWidths are the responsive variants stored next to each original.
var PhotoWidths = []int{400, 800}

// Image is what the page needs for the restaurant <img>.
type Image struct {
	Src    string
	SrcSet string
}

// PhotoStorage resolves restaurant photograph keys to browser URLs: a
// static/CDN base URL, the S3 object URL, or a presigned S3 GET.
type PhotoStorage struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
	presign bool
	expiry  time.Duration
}

func NewPhotoStorage(cfg config.PhotoConfig) *PhotoStorage {
	storage := &PhotoStorage{
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		presign: cfg.Presign,
		expiry:  cfg.PresignExpiry,
	}
	if storage.expiry <= 0 {
		storage.expiry = time.Hour
	}
	if cfg.Bucket == "" {
		return storage
	}

	var awsCfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.Region),
		)
		if err != nil {
			awsCfg = aws.Config{
				Region: cfg.Region,
			}
		}
	}

	storage.client = s3.NewFromConfig(awsCfg)
	return storage
}

// Key returns the object key of a photograph variant; width 0 is the original.
func Key(photograph string, width int) string {
	if width <= 0 {
		return fmt.Sprintf("%s.jpg", photograph)
	}
	return fmt.Sprintf("%s-%dw.jpg", photograph, width)
}

// URL returns a browser-usable URL for key.
func (s *PhotoStorage) URL(ctx context.Context, key string) (string, error) {
	if s.presign && s.client != nil {
		presignClient := s3.NewPresignClient(s.client)
		req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.expiry))
		if err != nil {
			return "", fmt.Errorf("failed to presign photo URL: %w", err)
		}
		return req.URL, nil
	}

	if s.baseURL != "" {
		// Use CloudFront or a static directory
		return fmt.Sprintf("%s/%s", s.baseURL, key), nil
	}
	if s.bucket != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
	}
	return "/" + key, nil
}

// ImageFor builds src and srcset for a photograph.
func (s *PhotoStorage) ImageFor(ctx context.Context, photograph string) (*Image, error) {
	if photograph == "" {
		return &Image{}, nil
	}

	src, err := s.URL(ctx, Key(photograph, 0))
	if err != nil {
		return nil, err
	}

	variants := make([]string, 0, len(PhotoWidths))
	for _, width := range PhotoWidths {
		u, err := s.URL(ctx, Key(photograph, width))
		if err != nil {
			return nil, err
		}
		variants = append(variants, fmt.Sprintf("%s %dw", u, width))
	}

	return &Image{Src: src, SrcSet: strings.Join(variants, ", ")}, nil
}
