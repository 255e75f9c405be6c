package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeyParts(t *testing.T) {
	cases := []struct {
		key          string
		parentPrefix string
		basename     string
		extension    string
		depth        int
		isFolder     bool
	}{
		{"file.txt", "", "file.txt", "txt", 0, false},
		{"a/b/c/file.tar.gz", "a/b/c/", "file.tar.gz", "gz", 3, false},
		{"a/folder/", "a/folder/", "", "", 2, true},
		{"noext", "", "noext", "", 0, false},
		// a dotfile's leading dot is not an extension separator
		{"dir/.hidden", "dir/", ".hidden", "", 1, false},
		{"a/b/", "a/b/", "", "", 2, true},
	}
	for _, tc := range cases {
		parent, base, ext, depth, isFolder := DeriveKeyParts(tc.key)
		assert.Equal(t, tc.parentPrefix, parent, tc.key)
		assert.Equal(t, tc.basename, base, tc.key)
		assert.Equal(t, tc.extension, ext, tc.key)
		assert.Equal(t, tc.depth, depth, tc.key)
		assert.Equal(t, tc.isFolder, isFolder, tc.key)
	}
}

// parent_prefix ∥ basename reconstructs the key, and depth counts the
// slashes in parent_prefix.
func TestDeriveKeyParts_ParentConcatBasenameIsKey(t *testing.T) {
	for _, key := range []string{"x", "a/b", "a/b/c/d.txt", "deep/er/still/"} {
		parent, base, _, depth, _ := DeriveKeyParts(key)
		assert.Equal(t, key, parent+base, key)
		assert.Equal(t, strings.Count(parent, "/"), depth, key)
	}
}

func TestParentOf(t *testing.T) {
	assert.Equal(t, "a/b/", ParentOf("a/b/c/"))
	assert.Equal(t, "a/", ParentOf("a/b/"))
	assert.Equal(t, "", ParentOf("a/"))
	assert.Equal(t, "", ParentOf(""))
}

func TestAncestorChain(t *testing.T) {
	assert.Equal(t, []string{"a/b/c/", "a/b/", "a/", ""}, AncestorChain("a/b/c/"))
	assert.Equal(t, []string{""}, AncestorChain(""))
}

func TestEstimateRowSize(t *testing.T) {
	o := &IndexedObject{Key: "a/b/file.txt", ETag: "etag", StorageClass: "STANDARD", ParentPrefix: "a/b/", Basename: "file.txt"}
	want := 200 + len(o.Key) + len(o.ETag) + len(o.StorageClass) + len(o.ParentPrefix) + len(o.Basename)
	assert.Equal(t, want, EstimateRowSize(o))
}
