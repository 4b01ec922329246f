package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/internal/domain"
	"github.com/lifenjoy/campaigns/pkg/cache"
	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/logger"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

const (
	uploadPrefix       = "uploads/"
	defaultPresignTTL  = 15 * time.Minute
	defaultMaxUpload   = 20 << 20
	resolveCachePrefix = "storage_url:"
)

var storageRefPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ErrInvalidStorageRef is returned for references that cannot name an uploaded object.
var ErrInvalidStorageRef = domain.ErrInvalidStorageRef

// NewS3Client builds an S3 client for the configured bucket. Endpoint and
// path-style addressing allow S3 compatible servers such as MinIO.
func NewS3Client(cfg *config.StorageConfig) (*s3.S3, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return s3.New(sess), nil
}

// StorageService stores campaign media in an S3 bucket. References are
// object names under uploads/; reads go through short lived presigned URLs
// that are cached per reference.
type StorageService struct {
	client        domain.S3Client
	bucket        string
	publicBaseURL string
	presignTTL    time.Duration
	maxUploadSize int64
	cache         cache.Cache
	urlTTL        time.Duration
	httpClient    *http.Client
	logger        logger.Logger
	group         singleflight.Group
	newRef        func() string
	now           func() time.Time
}

type StorageServiceConfig struct {
	Client        domain.S3Client
	Bucket        string
	PublicBaseURL string
	PresignTTL    time.Duration
	MaxUploadSize int64
	Cache         cache.Cache
	// URLTTL is how long a resolved URL is reused. It is capped below PresignTTL.
	URLTTL     time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
}

var (
	_ domain.StorageService        = (*StorageService)(nil)
	_ campaign_blocks.Uploader    = (*StorageService)(nil)
	_ campaign_blocks.URLResolver = (*StorageService)(nil)
)

func NewStorageService(cfg StorageServiceConfig) *StorageService {
	presignTTL := cfg.PresignTTL
	if presignTTL <= 0 {
		presignTTL = defaultPresignTTL
	}
	urlTTL := cfg.URLTTL
	if urlTTL <= 0 || urlTTL >= presignTTL {
		urlTTL = presignTTL / 2
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = tracing.HTTPClient(time.Minute)
	}
	return &StorageService{
		client:        cfg.Client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		presignTTL:    presignTTL,
		maxUploadSize: maxUpload,
		cache:         cfg.Cache,
		urlTTL:        urlTTL,
		httpClient:    httpClient,
		logger:        cfg.Logger,
		newRef:        func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		now:           time.Now,
	}
}

func objectKey(ref string) string {
	return uploadPrefix + ref
}

// GenerateUploadTarget presigns a one-time PUT for a fresh reference.
func (s *StorageService) GenerateUploadTarget(ctx context.Context) (campaign_blocks.UploadTarget, error) {
	_, span := tracing.StartSpan(ctx, "StorageService", "GenerateUploadTarget")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	ref := s.newRef()
	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(ref)),
	})
	signed, err := req.Presign(s.presignTTL)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to presign upload")
		return campaign_blocks.UploadTarget{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	return campaign_blocks.UploadTarget{
		Ref:       ref,
		URL:       signed,
		Method:    http.MethodPut,
		ExpiresAt: s.now().Add(s.presignTTL).UnixMilli(),
	}, nil
}

// Transfer uploads body to target and returns the target's reference.
// Only images and videos are accepted.
func (s *StorageService) Transfer(ctx context.Context, target campaign_blocks.UploadTarget, contentType string, body io.Reader) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "StorageService", "Transfer")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if !isMediaType(contentType) {
		err = &domain.ErrUnsupportedMediaType{ContentType: contentType}
		return "", err
	}
	if target.URL == "" || target.Ref == "" {
		err = errors.New("upload target is incomplete")
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadSize {
		err = domain.NewValidationError(fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUploadSize))
		return "", err
	}

	method := target.Method
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, target.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithField("ref", target.Ref).WithField("error", err.Error()).Error("Upload failed")
		return "", fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("upload rejected with status %d", resp.StatusCode)
		s.logger.WithField("ref", target.Ref).WithField("status", resp.StatusCode).Error("Upload rejected by storage")
		return "", err
	}

	tracing.AddAttribute(ctx, "storage.ref", target.Ref)
	tracing.AddAttribute(ctx, "storage.size", len(data))
	return target.Ref, nil
}

func isMediaType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}

// ResolveURL returns a fetchable URL for ref. Concurrent lookups of the same
// reference share one signing call.
func (s *StorageService) ResolveURL(ctx context.Context, ref string) (string, error) {
	if !storageRefPattern.MatchString(ref) {
		tracing.RecordResolve(ctx, tracing.OutcomeFailed)
		return "", ErrInvalidStorageRef
	}
	if s.publicBaseURL != "" {
		tracing.RecordResolve(ctx, tracing.OutcomeHit)
		return s.publicBaseURL + "/" + objectKey(ref), nil
	}

	cacheKey := resolveCachePrefix + ref
	if s.cache != nil {
		if u, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			tracing.RecordResolve(ctx, tracing.OutcomeHit)
			return u, nil
		} else if err != nil {
			s.logger.WithField("ref", ref).WithField("error", err.Error()).Warn("URL cache read failed")
		}
	}

	v, err, _ := s.group.Do(ref, func() (interface{}, error) {
		return s.presignGet(ctx, ref)
	})
	if err != nil {
		outcome := tracing.OutcomeFailed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = tracing.OutcomeTimeout
		}
		tracing.RecordResolve(ctx, outcome)
		return "", err
	}
	u := v.(string)
	tracing.RecordResolve(ctx, tracing.OutcomeSigned)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, u, s.urlTTL); err != nil {
			s.logger.WithField("ref", ref).WithField("error", err.Error()).Warn("URL cache write failed")
		}
	}
	return u, nil
}

func (s *StorageService) presignGet(ctx context.Context, ref string) (string, error) {
	_, span := tracing.StartSpan(ctx, "StorageService", "PresignGet")
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(ref)),
	})
	u, err := req.Presign(s.presignTTL)
	tracing.EndSpan(span, err)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return u, nil
}
