package gateway

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

type fakeAPIError struct{ code string }

func (f fakeAPIError) Error() string         { return f.code }
func (f fakeAPIError) ErrorCode() string     { return f.code }
func (f fakeAPIError) ErrorMessage() string  { return f.code }
func (f fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

func TestCategorize_MapsKnownAWSCodes(t *testing.T) {
	cases := map[string]errs.Category{
		"NoSuchBucket":           errs.BucketNotFound,
		"NoSuchKey":              errs.ObjectNotFound,
		"AccessDenied":           errs.AccessDenied,
		"InvalidAccessKeyId":     errs.InvalidCredentials,
		"BucketAlreadyExists":    errs.BucketAlreadyExists,
		"SlowDown":               errs.SlowDown,
	}
	for code, want := range cases {
		got := categorize(fakeAPIError{code: code})
		assert.Equal(t, want, got, code)
	}
}

func TestCategorize_UnknownErrorIsCategoryUnknown(t *testing.T) {
	assert.Equal(t, errs.CategoryUnknown, categorize(errors.New("something odd")))
}

func TestDeleteObjectsResult_ErrorsMapKeyedByObjectKey(t *testing.T) {
	r := &DeleteObjectsResult{Errors: map[string]string{"a.txt": "AccessDenied"}}
	assert.Len(t, r.Errors, 1)
	assert.Equal(t, "AccessDenied", r.Errors["a.txt"])
}
