package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/tastyhouse/backend/internal/types"
)

const thumbnailWidth = 320

// S3Store stores media in a single S3 bucket under a folder namespace.
// Object URLs are public bucket URLs; deletion derives the object key back
// from the URL.
type S3Store struct {
	client *s3.Client
	bucket string
	folder string
}

func NewS3Store(client *s3.Client, bucket, folder string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		folder: folder,
	}
}

// Upload stores the file under <folder>/<kind>s/<uuid><ext> and returns the
// public URL. Images additionally get a best-effort thumbnail; a thumbnail
// failure never fails the upload.
func (s *S3Store) Upload(ctx context.Context, file *types.FileUpload, kind Kind) (string, error) {
	if file == nil {
		return "", nil
	}

	key := s.objectKey(file, kind)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if kind == KindImage {
		s.uploadThumbnail(ctx, key, file)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	log.Printf("[S3Store] uploaded %s object %s", kind, key)
	return publicURL, nil
}

// Delete removes the object behind the URL. Images also drop their derived
// thumbnail. An empty URL is a no-op.
func (s *S3Store) Delete(ctx context.Context, fileURL string, kind Kind) error {
	if fileURL == "" {
		return nil
	}

	key, err := s.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	if kind == KindImage {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(thumbnailKey(key)),
		}); err != nil {
			log.Printf("[S3Store] thumbnail delete failed for %s: %v", key, err)
		}
	}

	log.Printf("[S3Store] deleted %s object %s", kind, key)
	return nil
}

func (s *S3Store) objectKey(file *types.FileUpload, kind Kind) string {
	return fmt.Sprintf("%s/%ss/%s%s", s.folder, kind, uuid.New().String(), extensionFor(file))
}

func (s *S3Store) uploadThumbnail(ctx context.Context, key string, file *types.FileUpload) {
	img, err := imaging.Decode(bytes.NewReader(file.Data))
	if err != nil {
		log.Printf("[S3Store] thumbnail decode failed for %s: %v", key, err)
		return
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		log.Printf("[S3Store] thumbnail encode failed for %s: %v", key, err)
		return
	}

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(thumbnailKey(key)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
	}); err != nil {
		log.Printf("[S3Store] thumbnail upload failed for %s: %v", key, err)
	}
}

// keyFromURL inverts the public URL back into the object key. Both
// virtual-hosted URLs (<bucket>.s3.amazonaws.com/<key>) and path-style URLs
// (s3.amazonaws.com/<bucket>/<key>) are accepted.
func (s *S3Store) keyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid blob URL %q: %w", fileURL, err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(u.Host, s.bucket+".") {
		key = strings.TrimPrefix(key, s.bucket+"/")
	}
	if key == "" {
		return "", fmt.Errorf("no object key in blob URL %q", fileURL)
	}
	return key, nil
}

func thumbnailKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + "_thumb.jpg"
}

func extensionFor(file *types.FileUpload) string {
	switch file.ContentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	if ext := path.Ext(file.Name); ext != "" {
		return ext
	}
	return ".bin"
}
