// internal/record/s3store.go
package record

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const recordPrefix = "processes"

// S3Store keeps one JSON object per process and uses S3 conditional writes
// (If-None-Match on create, If-Match on update) as the version token.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func recordKey(processID string) string {
	return path.Join(recordPrefix, processID+".json")
}

func (s *S3Store) Create(ctx context.Context, rec ProcessRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(recordKey(rec.ProcessID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isPreconditionErr(err) {
			return fmt.Errorf("create %s: %w", rec.ProcessID, ErrConflict)
		}
		return fmt.Errorf("create %s: %w", rec.ProcessID, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, processID string) (ProcessRecord, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(recordKey(processID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return ProcessRecord{}, "", fmt.Errorf("get %s: %w", processID, ErrNotFound)
		}
		return ProcessRecord{}, "", fmt.Errorf("get %s: %w", processID, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return ProcessRecord{}, "", fmt.Errorf("read %s: %w", processID, err)
	}
	var rec ProcessRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ProcessRecord{}, "", fmt.Errorf("decode %s: %w", processID, err)
	}
	return rec, aws.ToString(out.ETag), nil
}

func (s *S3Store) Update(ctx context.Context, rec ProcessRecord, etag string) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(recordKey(rec.ProcessID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfMatch:     aws.String(etag),
	})
	if err != nil {
		if isPreconditionErr(err) {
			return fmt.Errorf("update %s: %w", rec.ProcessID, ErrConflict)
		}
		return fmt.Errorf("update %s: %w", rec.ProcessID, err)
	}
	return nil
}

// isPreconditionErr matches the S3 responses for a failed conditional write:
// 412 for a stale If-Match, and 409 when concurrent conditional writes on one
// key collide mid-flight.
func isPreconditionErr(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "PreconditionFailed" || code == "ConditionalRequestConflict"
}
