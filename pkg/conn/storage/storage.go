// Package storage stores recipe images and user avatars in S3
// compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize caps uploaded images at 10 MiB.
const MaxImageSize = 10 << 20

// PresignExpiry is how long presigned upload URLs stay valid.
const PresignExpiry = 15 * time.Minute

type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`

	// PublicBaseUrl is the URL prefix clients fetch objects from.
	PublicBaseUrl string `yaml:"publicBaseUrl"`
}

type Store struct {
	client        *minio.Client
	bucket        string
	publicBaseUrl string
}

func New(conf Config) (*Store, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build object storage client: %w", err)
	}
	return &Store{
		client:        client,
		bucket:        conf.Bucket,
		publicBaseUrl: strings.TrimSuffix(conf.PublicBaseUrl, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// RecipeImagePath builds the object path of a recipe image.
func RecipeImagePath(userId int64, recipeId int64, ext string) string {
	return fmt.Sprintf(
		"recipes/%d/%d/%s%s",
		userId, recipeId, uuid.NewString(), normalizeExt(ext),
	)
}

// RecipeImagePrefix is where all images of a recipe live.
func RecipeImagePrefix(userId int64, recipeId int64) string {
	return fmt.Sprintf("recipes/%d/%d/", userId, recipeId)
}

// AvatarPath builds the object path of a user avatar.
func AvatarPath(userId int64, ext string) string {
	return fmt.Sprintf("avatars/%d/%s%s", userId, uuid.NewString(), normalizeExt(ext))
}

// AvatarPrefix is where all avatars of a user live.
func AvatarPrefix(userId int64) string {
	return fmt.Sprintf("avatars/%d/", userId)
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

// Put uploads an object. size may be -1 when unknown.
func (s *Store) Put(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(
		ctx, s.bucket, objectPath, r, size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	return err
}

// Remove deletes an object. Removing a missing object is not an error.
func (s *Store) Remove(ctx context.Context, objectPath string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
}

// PresignPut returns a presigned URL accepting a direct upload of the
// object, valid for PresignExpiry.
func (s *Store) PresignPut(ctx context.Context, objectPath string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectPath, PresignExpiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Exists probes whether the object is stored.
func (s *Store) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PublicUrl resolves an object path to the URL clients fetch it from.
// Empty paths resolve to "".
func (s *Store) PublicUrl(objectPath string) string {
	if objectPath == "" {
		return ""
	}
	escaped := (&url.URL{Path: path.Join(s.bucket, objectPath)}).EscapedPath()
	return s.publicBaseUrl + "/" + strings.TrimPrefix(escaped, "/")
}
