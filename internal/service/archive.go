package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"loyaltypush/internal/config"
	"loyaltypush/internal/model"
	"loyaltypush/internal/repository"
)

const (
	archiveFolder      = "notifications"
	archiveContentType = "application/json"
)

// ObjectPutter is the slice of the S3 API the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NotificationArchiver exports a chat's audit rows to Cloudflare R2.
type NotificationArchiver struct {
	notifRepo repository.NotificationRepository
	store     ObjectPutter
	bucket    string
}

func NewNotificationArchiver(notifRepo repository.NotificationRepository, store ObjectPutter, bucket string) *NotificationArchiver {
	return &NotificationArchiver{
		notifRepo: notifRepo,
		store:     store,
		bucket:    bucket,
	}
}

// NewR2Client constructs an S3-compatible client for Cloudflare R2.
func NewR2Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	if !cfg.ArchiveEnabled() {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

// ArchiveChat uploads every audit row of chatID as one JSON array.
// An empty chat still produces an object containing [].
func (a *NotificationArchiver) ArchiveChat(ctx context.Context, chatID string) (*model.ArchiveResult, error) {
	if chatID == "" {
		return nil, model.NewFailure(model.FailureInvalidInput, "archive chat", fmt.Errorf("missing chat id"))
	}

	records, err := a.notifRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, model.NewFailure(model.FailureLookup, "archive chat", err)
	}
	if records == nil {
		records = []model.NotificationRecord{}
	}

	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json", archiveFolder, chatID, uuid.NewString())
	_, err = a.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(archiveContentType),
	})
	if err != nil {
		return nil, model.NewFailure(model.FailurePersistence, "archive chat", fmt.Errorf("failed to upload to r2: %w", err))
	}

	log.Printf("[Archive] Uploaded %d notifications: chat=%s key=%s", len(records), chatID, key)
	return &model.ArchiveResult{Key: key, Count: len(records)}, nil
}
