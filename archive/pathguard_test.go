package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type PathTest struct {
	path, result string
}

var validPathTests = []PathTest{
	// Already clean
	{"abc", "abc"},
	{"abc/def", "abc/def"},
	{"a/b/c", "a/b/c"},

	// Trailing separators, directories
	{"abc/", "abc"},
	{"abc/def/", "abc/def"},

	// Doubled separators
	{"abc//def//ghi", "abc/def/ghi"},
	{"abc//", "abc"},

	// . elements
	{"abc/./def", "abc/def"},
	{"./abc/def", "abc/def"},
	{"abc/.", "abc"},

	// Backslashes are separators too
	{`abc\def`, "abc/def"},
	{`abc\def\`, "abc/def"},
	{`a\./b/c`, "a/b/c"},

	// Dots inside names are fine
	{"..abc", "..abc"},
	{"abc..", "abc.."},
	{"a/...b/c", "a/...b/c"},
	{"日本語/ファイル.txt", "日本語/ファイル.txt"},
}

func TestValidatePath(t *testing.T) {
	for _, cas := range validPathTests {
		res, err := ValidatePath(cas.path)
		if assert.NoError(t, err, cas.path) {
			assert.Equal(t, cas.result, res, cas.path)
		}
	}
}

func TestValidatePathIdempotent(t *testing.T) {
	for _, cas := range validPathTests {
		once, err := ValidatePath(cas.path)
		assert.NoError(t, err)
		twice, err := ValidatePath(once)
		assert.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestValidatePathRejects(t *testing.T) {
	cases := []struct {
		path     string
		security SecurityKind
	}{
		{"../etc/passwd", SecurityPathTraversal},
		{"..", SecurityPathTraversal},
		{"a/../b", SecurityPathTraversal},
		{"a/b/..", SecurityPathTraversal},
		{`a\..\..\b`, SecurityPathTraversal},
		{"", SecurityPathTraversal},
		{".", SecurityPathTraversal},
		{"./", SecurityPathTraversal},
		{"//", SecurityAbsolutePath},
		{"/etc/passwd", SecurityAbsolutePath},
		{`\windows\system32`, SecurityAbsolutePath},
		{`\\server\share\file`, SecurityAbsolutePath},
		{`C:\Windows\evil.dll`, SecurityAbsolutePath},
		{"c:evil", SecurityAbsolutePath},
		{"D:/x", SecurityAbsolutePath},
		{"bad\xffname", SecurityPathTraversal},
	}

	for _, cas := range cases {
		_, err := ValidatePath(cas.path)
		if assert.Error(t, err, cas.path) {
			var ee *ExtractError
			if assert.ErrorAs(t, err, &ee) {
				assert.Equal(t, KindSecurity, ee.Kind, cas.path)
				assert.Equal(t, cas.security, ee.Security, cas.path)
			}
		}
	}
}

func TestStripComponents(t *testing.T) {
	cases := []struct {
		path   string
		n      uint32
		result string
	}{
		{"a/b/c", 0, "a/b/c"},
		{"a/b/c", 1, "b/c"},
		{"a/b/c", 2, "c"},
		{"a/b/c", 3, ""},
		{"a/b/c", 10, ""},
		{"test.txt", 1, ""},
		{"subdir/nested.txt", 1, "nested.txt"},
	}

	for _, cas := range cases {
		assert.Equal(t, cas.result, StripComponents(cas.path, cas.n), "%s minus %d", cas.path, cas.n)
	}
}

func TestSecurityMessages(t *testing.T) {
	_, err := ValidatePath("../x")
	assert.EqualError(t, err, "Security violation: Path traversal attempt: ../x")

	_, err = ValidatePath("/x")
	assert.EqualError(t, err, "Security violation: Absolute path not allowed: /x")
}
