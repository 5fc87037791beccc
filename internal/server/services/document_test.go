package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/fabrica-p6f5/backoffice/internal/logging"
	sc "github.com/fabrica-p6f5/backoffice/internal/server/config"
	"github.com/fabrica-p6f5/backoffice/internal/server/models"
	"github.com/fabrica-p6f5/backoffice/internal/server/repositories/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentsRepo struct {
	documents.Repository
	created   *models.Document
	createErr error
	getOut    *models.Document
	getErr    error
}

func (f *fakeDocumentsRepo) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	d.ID = 3
	f.created = d
	return d, nil
}

func (f *fakeDocumentsRepo) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	return f.getOut, f.getErr
}

func newDocumentSvc(t *testing.T, repo *fakeDocumentsRepo) *DocumentService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })

	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "documents",
	}
	svc := NewDocumentService(db, &fakeRepoManager{documents: repo}, cfg, logging.Nop{})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// stubS3 replaces the AWS seams for the duration of the test.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := putObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient = origLoad, origNewS3, origNewPre
		putObject, presignGetObject = origPut, origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func Test_getS3Client_AppliesConfig(t *testing.T) {
	svc := newDocumentSvc(t, &fakeDocumentsRepo{})

	origLoad, origNewS3 := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNewS3 })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	c, err := svc.getS3Client()
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.getS3Client()
	assert.EqualError(t, err, "load-fail")
}

func TestUpload(t *testing.T) {
	repo := &fakeDocumentsRepo{}
	svc := newDocumentSvc(t, repo)
	stubS3(t)

	var put *s3.PutObjectInput
	var body string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		put = in
		b, _ := io.ReadAll(in.Body)
		body = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	doc, err := svc.Upload(context.Background(), "alice", "../BOL.PDF", "application/pdf", 5, strings.NewReader("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.ID)
	assert.Equal(t, "BOL.PDF", doc.Filename)
	assert.Equal(t, "alice", doc.UploadedBy)
	assert.Equal(t, fixedNow, doc.UploadedAt)

	require.NotNil(t, put)
	assert.Equal(t, "documents", *put.Bucket)
	assert.Equal(t, doc.StorageKey, *put.Key)
	assert.True(t, strings.HasPrefix(*put.Key, "documents/2025/01/15/"))
	assert.True(t, strings.HasSuffix(*put.Key, ".pdf"))
	assert.Equal(t, int64(5), *put.ContentLength)
	assert.Equal(t, "%PDF-", body)
}

func TestUpload_Errors(t *testing.T) {
	stubS3(t)

	svc := newDocumentSvc(t, &fakeDocumentsRepo{})
	_, err := svc.Upload(context.Background(), "alice", " ", "", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, common.ErrValidation)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("put-fail")
	}
	_, err = svc.Upload(context.Background(), "alice", "a.txt", "", 1, strings.NewReader("x"))
	assert.ErrorContains(t, err, "put object: put-fail")

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		assert.Equal(t, "application/octet-stream", *in.ContentType)
		return &s3.PutObjectOutput{}, nil
	}
	svcDB := newDocumentSvc(t, &fakeDocumentsRepo{createErr: errBoom{}})
	_, err = svcDB.Upload(context.Background(), "alice", "a.txt", "", 1, strings.NewReader("x"))
	assert.ErrorContains(t, err, "save document: boom")
}

func TestDownload(t *testing.T) {
	stubS3(t)

	doc := &models.Document{ID: 3, Filename: "bol.pdf", StorageKey: "documents/2025/01/15/abc.pdf"}
	svc := newDocumentSvc(t, &fakeDocumentsRepo{getOut: doc})

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "documents/2025/01/15/abc.pdf", *in.Key)
		assert.Equal(t, `attachment; filename="bol.pdf"`, *in.ResponseContentDisposition)
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, downloadURLValidity, po.Expires)
		return &v4.PresignedHTTPRequest{URL: "http://minio/documents/abc?sig"}, nil
	}

	got, url, err := svc.Download(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Equal(t, "http://minio/documents/abc?sig", url)
}

func TestDownload_Errors(t *testing.T) {
	stubS3(t)

	svcNF := newDocumentSvc(t, &fakeDocumentsRepo{getErr: common.ErrorNotFound})
	_, _, err := svcNF.Download(context.Background(), 9)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}
	svc := newDocumentSvc(t, &fakeDocumentsRepo{getOut: &models.Document{StorageKey: "k"}})
	_, _, err = svc.Download(context.Background(), 3)
	assert.ErrorContains(t, err, "presign-get-fail")
}
