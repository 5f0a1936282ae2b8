// internal/assets/store.go
package assets

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const snapshotPrefix = "snapshots"

// Store persists rendered snapshot images and hands out expiring download
// links. Asset keys are deterministic per process and station, so a
// redelivered job overwrites its own output instead of duplicating it.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	linkTTL time.Duration
}

func NewStore(client *s3.Client, bucket string, linkTTL time.Duration) *Store {
	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		linkTTL: linkTTL,
	}
}

// SnapshotKey derives the stable asset key for one station's snapshot.
func SnapshotKey(processID string, stationID int, stationName string) string {
	return path.Join(snapshotPrefix, processID, fmt.Sprintf("%d-%s.jpg", stationID, Slug(stationName)))
}

// Slug lowercases a station name and collapses everything that is not a
// letter or digit into single dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Put uploads one rendered snapshot. Re-uploading the same key overwrites.
func (s *Store) Put(ctx context.Context, key string, jpeg []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jpeg),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return nil
}

// Link returns a presigned, read-only URL for the asset, valid for the
// configured window.
func (s *Store) Link(ctx context.Context, key string) (string, error) {
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return out.URL, nil
}
