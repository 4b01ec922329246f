package domain

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
)

//go:generate mockgen -destination mocks/mock_storage_service.go -package mocks github.com/lifenjoy/campaigns/internal/domain StorageService

// StorageService issues upload targets, transfers files and resolves storage
// references to fetchable URLs. It satisfies campaign_blocks.Uploader and
// campaign_blocks.URLResolver.
type StorageService interface {
	GenerateUploadTarget(ctx context.Context) (campaign_blocks.UploadTarget, error)
	Transfer(ctx context.Context, target campaign_blocks.UploadTarget, contentType string, body io.Reader) (string, error)
	ResolveURL(ctx context.Context, ref string) (string, error)
}

type UploadURLResponse struct {
	Target campaign_blocks.UploadTarget `json:"target"`
}

type UploadResponse struct {
	StorageID string `json:"storageId"`
	URL       string `json:"url,omitempty"`
}

type ResolveURLResponse struct {
	StorageID string `json:"storageId"`
	URL       string `json:"url"`
}

// ErrInvalidStorageRef is returned for references that cannot name an uploaded object.
var ErrInvalidStorageRef = errors.New("invalid storage reference")

// ErrUnsupportedMediaType is returned for uploads that are not images or videos.
type ErrUnsupportedMediaType struct {
	ContentType string
}

func (e *ErrUnsupportedMediaType) Error() string {
	return "unsupported content type: " + e.ContentType
}

// S3Client is the subset of the S3 API used to presign object requests.
type S3Client interface {
	PutObjectRequest(input *s3.PutObjectInput) (*request.Request, *s3.PutObjectOutput)
	GetObjectRequest(input *s3.GetObjectInput) (*request.Request, *s3.GetObjectOutput)
}
