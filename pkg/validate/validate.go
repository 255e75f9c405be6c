// Package validate implements the input-validation rules the CommandFacade
// applies before dispatching to S3Gateway or IndexEngine.
//
// Built on go-playground/validator/v10 for the struct-tag-driven checks
// (sizes, required fields, URL scheme) and hand-rolled functions for the
// rules validator's tag vocabulary doesn't cover natively (S3 bucket name
// grammar, object key control-character scanning) — registered onto the
// same validator.Validate instance via RegisterValidation, the library's
// own documented extension mechanism, rather than left as bare functions.
package validate

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

const (
	// MinPresignExpiry is the shortest allowed presigned URL lifetime.
	MinPresignExpiry = 1 * time.Second
	// MaxPresignExpiry is the longest allowed presigned URL lifetime (S3's
	// own limit for SigV4 presigned requests, 7 days).
	MaxPresignExpiry = 7 * 24 * time.Hour

	maxObjectKeyLen = 1024
)

var bucketNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Validator wraps a configured validator.Validate with S3Explorer's custom
// rules registered.
type Validator struct {
	v *validator.Validate
}

// New constructs a Validator with custom tags registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("s3bucket", func(fl validator.FieldLevel) bool {
		return BucketName(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("s3objectkey", func(fl validator.FieldLevel) bool {
		return ObjectKey(fl.Field().String()) == nil
	})
	return &Validator{v: v}
}

// Struct validates s against its `validate:"..."` tags, translating the
// first failure into an *errs.Error.
func (val *Validator) Struct(s any) error {
	if err := val.v.Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			return errs.New(errs.ValidationError, fe.Field()+" failed "+fe.Tag()+" validation").WithPath(fe.Field())
		}
		return errs.Wrap(errs.ValidationError, "struct validation", err)
	}
	return nil
}

// BucketName validates an S3 bucket name per the DNS-compliant naming
// rules (RFC 1123-derived, as S3 documents them): "192.168.1.1" is
// rejected (IP-address form), "my..bucket" is rejected (consecutive
// periods), "my-bucket" is accepted.
func BucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return errs.New(errs.ValidationError, "bucket name must be 3-63 characters").WithPath(name)
	}
	if !bucketNameRE.MatchString(name) {
		return errs.New(errs.ValidationError, "bucket name must contain only lowercase letters, digits, hyphens, and periods, and start/end with a letter or digit").WithPath(name)
	}
	if net.ParseIP(name) != nil {
		return errs.New(errs.ValidationError, "bucket name must not be formatted as an IP address").WithPath(name)
	}
	if strings.Contains(name, "..") {
		return errs.New(errs.ValidationError, "bucket name must not contain consecutive periods").WithPath(name)
	}
	if strings.Contains(name, ".-") || strings.Contains(name, "-.") {
		return errs.New(errs.ValidationError, "bucket name must not contain a period adjacent to a hyphen").WithPath(name)
	}
	if strings.HasPrefix(name, "xn--") || strings.HasSuffix(name, "-s3alias") {
		return errs.New(errs.ValidationError, "bucket name must not use a reserved prefix or suffix").WithPath(name)
	}
	return nil
}

// ObjectKey validates an S3 object key: non-empty, at most 1024 characters
// (UTF-8 bytes), and free of control characters, which are rejected even
// though S3 technically tolerates some of them, because they corrupt
// local-filesystem destinations during download.
func ObjectKey(key string) error {
	if key == "" {
		return errs.New(errs.ValidationError, "object key must not be empty")
	}
	if len(key) > maxObjectKeyLen {
		return errs.New(errs.ValidationError, "object key must be at most 1024 bytes").WithPath(key)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return errs.New(errs.ValidationError, "object key must not contain control characters").WithPath(key)
		}
	}
	return nil
}

// FolderPath normalizes a UI-supplied folder path into a valid S3 prefix:
// strips a leading slash (S3 keys never start with one) and ensures a
// trailing slash (folders are represented as prefixes).
func FolderPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", errs.New(errs.ValidationError, "folder path must not be empty")
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	if err := ObjectKey(p); err != nil {
		return "", err
	}
	return p, nil
}

// PresignExpiry validates a presigned-URL expiry duration against S3's
// accepted range (1s-604800s / 7 days).
func PresignExpiry(d time.Duration) error {
	if d < MinPresignExpiry || d > MaxPresignExpiry {
		return errs.New(errs.ValidationError, "presign expiry must be between 1 second and 7 days")
	}
	return nil
}

// EndpointURL validates a custom S3-compatible endpoint URL: must parse,
// must use http or https, and (soft validation — returns a descriptive
// error only for unparseable or wrong-scheme URLs, not a bare boolean) a
// plain-http endpoint pointing off-localhost is flagged so the caller can
// surface a security warning rather than silently sending credentials in
// the clear.
func EndpointURL(raw string) (warning string, err error) {
	if raw == "" {
		return "", nil
	}
	u, perr := url.Parse(raw)
	if perr != nil {
		return "", errs.Wrap(errs.ValidationError, "parse endpoint URL", perr).WithPath(raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errs.New(errs.ValidationError, "endpoint URL must use http or https").WithPath(raw)
	}
	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return "endpoint uses plain http to a non-local host; credentials are sent unencrypted", nil
		}
	}
	return "", nil
}
