package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// categorize maps an aws-sdk-go-v2 error into the protocol-agnostic
// category taxonomy the core reasons about.
func categorize(err error) errs.Category {
	if err == nil {
		return errs.CategoryUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.ConnectionTimeout
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return errs.BucketNotFound
		case "BucketNotEmpty":
			return errs.BucketNotEmpty
		case "NoSuchKey", "NotFound":
			return errs.ObjectNotFound
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return errs.BucketAlreadyExists
		case "InvalidBucketName":
			return errs.InvalidBucketName
		case "AccessDenied", "Forbidden":
			return errs.AccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.InvalidCredentials
		case "ExpiredToken", "TokenRefreshRequired":
			return errs.ExpiredCredentials
		case "EntityTooLarge":
			return errs.RequestTooLarge
		case "SlowDown":
			return errs.SlowDown
		case "ServiceUnavailable":
			return errs.ServiceUnavailable
		case "InternalError":
			return errs.InternalError
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return errs.ReadTimeout
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "connection refused"):
		return errs.NetworkError
	}
	return errs.CategoryUnknown
}
