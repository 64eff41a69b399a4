package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

type objectStore interface {
	PutObjectWithContext(aws.Context, *s3.PutObjectInput, ...request.Option) (*s3.PutObjectOutput, error)
	HeadBucketWithContext(aws.Context, *s3.HeadBucketInput, ...request.Option) (*s3.HeadBucketOutput, error)
}

// SpacesRemote writes each day as one object per user and date in an
// S3-compatible bucket. Re-uploading a date replaces the object.
type SpacesRemote struct {
	client objectStore
	bucket string
	userID string
}

type daySnapshot struct {
	UserID string     `json:"user_id"`
	Date   model.Date `json:"date"`
	model.PrayerPayload
}

func NewSpacesRemote(endpoint, region, bucket, accessKey, secretKey, userID string) (*SpacesRemote, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
		MaxRetries:       aws.Int(0),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesRemote{client: s3.New(sess), bucket: bucket, userID: userID}, nil
}

func (r *SpacesRemote) key(date model.Date) string {
	return fmt.Sprintf("prayers/%s/%s.json", r.userID, date)
}

func (r *SpacesRemote) UpsertDay(ctx context.Context, date model.Date, payload model.PrayerPayload) error {
	body, err := json.Marshal(daySnapshot{UserID: r.userID, Date: date, PrayerPayload: payload})
	if err != nil {
		return err
	}

	_, err = r.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(date)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         aws.String("private"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to Spaces: %w", date, err)
	}
	return nil
}

func (r *SpacesRemote) Probe(ctx context.Context) error {
	_, err := r.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	return err
}
