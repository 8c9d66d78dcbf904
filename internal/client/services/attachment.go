package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/formrelay/internal/client/api"
	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/dmitrijs2005/formrelay/internal/netx"
)

// AttachmentService uploads submission attachments: it asks the server for a
// presigned PUT URL and uploads directly to object storage.
type AttachmentService interface {
	// Upload stores data for a submission and returns the storage key.
	Upload(ctx context.Context, submissionID string, data []byte) (string, error)
}

type attachmentService struct {
	client api.Client
	logger logging.Logger
}

func NewAttachmentService(client api.Client, logger logging.Logger) AttachmentService {
	return &attachmentService{client: client, logger: logger}
}

func (s *attachmentService) Upload(ctx context.Context, submissionID string, data []byte) (string, error) {
	key, url, err := s.client.PresignAttachment(ctx, submissionID)
	if err != nil {
		return "", err
	}

	if err := netx.UploadToPresignedURL(ctx, url, data); err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}

	s.logger.Info(ctx, "attachment uploaded", "submission", submissionID, "key", key, "bytes", len(data))
	return key, nil
}
