package profile

import (
	"path/filepath"
	"strings"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// SanitizeID keeps only [A-Za-z0-9_-] from id, for use in filesystem paths
// derived from a profile id.
func SanitizeID(id string) (string, error) {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	sanitized := b.String()
	if sanitized == "" {
		return "", errs.New(errs.ValidationError, "profile id sanitizes to empty string").WithPath(id)
	}
	return sanitized, nil
}

// IndexFilePath returns the per-profile index database path under dataDir:
// {data_dir}/app/indexes/{sanitized_profile_id}.db.
func IndexFilePath(dataDir, profileID string) (string, error) {
	sanitized, err := SanitizeID(profileID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "app", "indexes", sanitized+".db"), nil
}
