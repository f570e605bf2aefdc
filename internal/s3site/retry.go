package s3site

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
)

// S3 errors that we will retry.
var recoverableErrorsSuffixes = []string{
	"Idle connections will be closed.",
	"EOF",
	"broken pipe",
	"no such host",
	"transport closed before response was received",
	"TLS handshake timeout",
	"connection reset by peer",
}

var recoverableCodes = map[string]bool{
	"RequestTimeout":               true,
	"SlowDown":                     true,
	"InternalError":                true,
	"ServiceUnavailable":           true,
	request.ErrCodeRequestError:    true,
	request.ErrCodeResponseTimeout: true,
}

// IsRecoverable reports whether a failed upload is worth another attempt.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		if recoverableCodes[aerr.Code()] {
			return true
		}
		if orig := aerr.OrigErr(); orig != nil && hasRecoverableSuffix(orig.Error()) {
			return true
		}
	}

	return hasRecoverableSuffix(err.Error())
}

func hasRecoverableSuffix(msg string) bool {
	for _, suffix := range recoverableErrorsSuffixes {
		if strings.HasSuffix(msg, suffix) {
			return true
		}
	}
	return false
}
