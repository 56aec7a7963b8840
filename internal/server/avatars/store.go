// Package avatars validates profile avatars and optionally moves inline
// images to S3-compatible object storage.
package avatars

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/config"
)

const maxURLLength = 2048

var (
	ErrInvalidAvatar  = fmt.Errorf("%w: Avatar must be an image data URL or an http(s) URL", common.ErrValidation)
	ErrAvatarTooLarge = fmt.Errorf("%w: Avatar image is too large", common.ErrValidation)
)

var imageExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectPutter is the part of *s3.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	maxBytes  int64
	putter    ObjectPutter
	bucket    string
	publicURL string
}

// NewInlineStore keeps validated data URLs as they are.
func NewInlineStore(maxBytes int64) *Store {
	return &Store{maxBytes: maxBytes}
}

// NewObjectStore uploads data URL images through p and stores their public URL.
func NewObjectStore(maxBytes int64, p ObjectPutter, bucket, publicURL string) *Store {
	return &Store{maxBytes: maxBytes, putter: p, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// NewStoreFromConfig returns an object store when an S3 bucket is configured
// and an inline store otherwise.
func NewStoreFromConfig(ctx context.Context, c *config.Config) (*Store, error) {
	if c.S3Bucket == "" {
		return NewInlineStore(c.MaxAvatarBytes), nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.S3RootUser, c.S3RootPassword, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	public := c.S3PublicURL
	if public == "" {
		public = strings.TrimRight(c.S3BaseEndpoint, "/") + "/" + c.S3Bucket
	}
	return NewObjectStore(c.MaxAvatarBytes, client, c.S3Bucket, public), nil
}

// Normalize validates raw and returns the value to persist. An empty raw
// clears the avatar.
func (s *Store) Normalize(ctx context.Context, userID int64, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if strings.HasPrefix(raw, "data:") {
		contentType, data, err := s.decodeDataURL(raw)
		if err != nil {
			return "", err
		}
		if s.putter == nil {
			return raw, nil
		}
		return s.upload(ctx, userID, contentType, data)
	}

	if len(raw) > maxURLLength {
		return "", ErrInvalidAvatar
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidAvatar
	}
	return raw, nil
}

func (s *Store) decodeDataURL(raw string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return "", nil, ErrInvalidAvatar
	}
	contentType, enc, ok := strings.Cut(meta, ";")
	contentType = strings.ToLower(contentType)
	if !ok || enc != "base64" || imageExt[contentType] == "" {
		return "", nil, ErrInvalidAvatar
	}

	if s.maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxBytes+2 {
		return "", nil, ErrAvatarTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidAvatar
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", nil, ErrAvatarTooLarge
	}
	return contentType, data, nil
}

func (s *Store) upload(ctx context.Context, userID int64, contentType string, data []byte) (string, error) {
	key := fmt.Sprintf("avatars/%d/%s.%s", userID, uuid.New(), imageExt[contentType])

	_, err := s.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return s.publicURL + "/" + key, nil
}
