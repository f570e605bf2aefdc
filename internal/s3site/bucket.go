package s3site

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/OndrejSlamecka/s5upload/internal/sync"
)

// Files up to this size go up in a single PUT, so their ETag stays the MD5 of the
// content and they are recognised as unchanged on the next run.
const partSize = 64 * 1024 * 1024

// Bucket lists and uploads objects of a single S3 bucket.
type Bucket struct {
	Name string
	// Encrypt requests AES256 server side encryption for uploads.
	Encrypt bool

	svc      s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

// NewBucket returns a Bucket backed by clients created from p.
func NewBucket(p client.ConfigProvider, name string) *Bucket {
	svc := s3.New(p)
	return NewBucketWithClients(name, svc, s3manager.NewUploaderWithClient(svc, func(u *s3manager.Uploader) {
		u.PartSize = partSize
		u.LeavePartsOnError = false
	}))
}

// NewBucketWithClients wires explicit clients, mainly for tests.
func NewBucketWithClients(name string, svc s3iface.S3API, uploader s3manageriface.UploaderAPI) *Bucket {
	return &Bucket{Name: name, svc: svc, uploader: uploader}
}

// List returns every object under prefix, keyed by object key.
func (b *Bucket) List(ctx context.Context, prefix string) (sync.Listing, error) {
	listing := sync.Listing{}
	input := &s3.ListObjectsV2Input{Bucket: aws.String(b.Name)}
	if p := strings.Trim(prefix, "/"); p != "" {
		input.Prefix = aws.String(p + "/")
	}

	err := b.svc.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, o := range page.Contents {
			key := aws.StringValue(o.Key)
			listing[key] = sync.RemoteObject{
				Key:          key,
				ETag:         strings.Trim(aws.StringValue(o.ETag), `"`),
				Size:         aws.Int64Value(o.Size),
				LastModified: aws.TimeValue(o.LastModified),
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", b.Name, aws.StringValue(input.Prefix), err)
	}

	return listing, nil
}

// Upload puts the action's file under its key with its Cache-Control value.
func (b *Bucket) Upload(ctx context.Context, a sync.Action) error {
	f, err := os.Open(a.File.AbsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	input := &s3manager.UploadInput{
		Bucket:       aws.String(b.Name),
		Key:          aws.String(a.Key),
		Body:         f,
		CacheControl: aws.String(a.CacheControl),
	}
	if ct := ContentType(a.File.AbsPath); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if b.Encrypt {
		input.ServerSideEncryption = aws.String(s3.ServerSideEncryptionAes256)
	}

	_, err = b.uploader.UploadWithContext(ctx, input)
	return err
}
