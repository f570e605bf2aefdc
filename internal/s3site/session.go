// Package s3site implements the bucket and CDN side of a site sync on top of the
// AWS SDK: listing and uploading objects in S3 and invalidating CloudFront.
package s3site

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Options selects the AWS region and shared profile. Empty values defer to the
// SDK's usual environment and shared config lookup.
type Options struct {
	Region  string
	Profile string
}

// NewSession returns a session with shared config enabled.
func NewSession(opts Options) (*session.Session, error) {
	cfg := aws.Config{MaxRetries: aws.Int(2)}
	if opts.Region != "" {
		cfg.Region = aws.String(opts.Region)
	}

	return session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		Profile:           opts.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
}
