package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PipelineFailure is the archived record of a run whose every attempt failed.
type PipelineFailure struct {
	Mode     string    `json:"mode"`
	AuthorID string    `json:"author_id"`
	Input    string    `json:"input"`
	Kind     string    `json:"kind"`
	Path     string    `json:"path,omitempty"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error"`
	Raw      string    `json:"raw"`
	At       time.Time `json:"at"`
}

// PutObjectAPI is the part of the S3 client the archiver needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads failures as JSON to pipeline-failures/YYYY/MM/DD/<uuid>.json.
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	now    func() time.Time
}

func NewS3Archiver(client PutObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, now: time.Now}
}

// Archive uploads failure and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, failure *PipelineFailure) (string, error) {
	if failure.At.IsZero() {
		failure.At = a.now().UTC()
	}
	body, err := json.Marshal(failure)
	if err != nil {
		return "", fmt.Errorf("failed to marshal failure: %w", err)
	}

	key := fmt.Sprintf("pipeline-failures/%s/%s.json", failure.At.Format("2006/01/02"), uuid.New().String())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload failure record: %w", err)
	}
	return key, nil
}
