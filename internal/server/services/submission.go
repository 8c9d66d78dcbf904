package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/common"
	sc "github.com/dmitrijs2005/formrelay/internal/server/config"
	"github.com/dmitrijs2005/formrelay/internal/server/models"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/forms"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/submissions"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type SubmissionService struct {
	submissions submissions.Repository
	forms       forms.Repository
	config      *sc.Config
}

func NewSubmissionService(submissions submissions.Repository, forms forms.Repository, config *sc.Config) *SubmissionService {
	return &SubmissionService{submissions: submissions, forms: forms, config: config}
}

// Accept stores a submission. Replays of an already-stored ID report
// duplicate=true and write nothing, so clients draining their offline queue
// can treat both outcomes as delivered.
func (s *SubmissionService) Accept(ctx context.Context, sub *models.Submission) (bool, error) {
	ok, err := s.forms.Exists(ctx, sub.FormID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("unknown form %q: %w", sub.FormID, common.ErrorNotFound)
	}

	return s.submissions.Insert(ctx, sub)
}

func attachmentStorageKey(submissionID string) string {
	d := time.Now()
	return fmt.Sprintf("attachments/%d/%d/%d/%s/%v", d.Year(), d.Month(), d.Day(), submissionID, uuid.New())
}

func (s *SubmissionService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PresignAttachmentURL returns the storage key and a presigned PUT URL the
// client uploads an attachment to directly.
func (s *SubmissionService) PresignAttachmentURL(ctx context.Context, submissionID string) (string, string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := attachmentStorageKey(submissionID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))

	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}
