package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/logging"
	sc "github.com/fabrica-p6f5/backoffice/internal/server/config"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const downloadURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// DocumentService keeps document bytes in S3-compatible storage and their
// metadata in the database.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	now         func() time.Time
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		config:      config,
		logger:      logger.With("module", "documents"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// StorageKey returns a fresh object key partitioned by upload date.
func StorageKey(at time.Time, filename string) string {
	return fmt.Sprintf("documents/%d/%02d/%02d/%s%s", at.Year(), at.Month(), at.Day(), uuid.New(), strings.ToLower(path.Ext(filename)))
}

func (s *DocumentService) getS3Client() (*s3.Client, error) {
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

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload stores body under a new key and records its metadata.
func (s *DocumentService) Upload(ctx context.Context, actor, filename, contentType string, size int64, body io.Reader) (*models.Document, error) {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "." || filename == "/" || filename == "" {
		return nil, validationError("filename is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := StorageKey(now, filename)
	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}); err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	doc, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StorageKey:  key,
		UploadedBy:  actor,
		UploadedAt:  now,
	})
	if err != nil {
		s.logger.Warn(ctx, "document metadata not saved, object orphaned", "key", key, "error", err.Error())
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info(ctx, "document uploaded", "document_id", doc.ID, "size", size)
	return doc, nil
}

// Download returns the document metadata and a short-lived presigned GET URL.
func (s *DocumentService) Download(ctx context.Context, id int64) (*models.Document, string, error) {
	doc, err := s.repomanager.Documents(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("get document: %w", err)
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	disposition := fmt.Sprintf("attachment; filename=%q", doc.Filename)
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket:                     &bucket,
		Key:                        &doc.StorageKey,
		ResponseContentDisposition: &disposition,
	}, s3.WithPresignExpires(downloadURLValidity))
	if err != nil {
		return nil, "", fmt.Errorf("presign get: %w", err)
	}

	return doc, req.URL, nil
}
