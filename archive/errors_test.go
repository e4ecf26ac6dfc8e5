package archive

import (
	"io"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err error
		msg string
	}{
		{notFound("missing.zip"), "Archive not found: missing.zip"},
		{unsupportedFormat("dmg"), "Unsupported format: dmg"},
		{passwordError(nil, nil), "Password required"},
		{passwordError(DefaultExtractOptions().WithPassword("hunter2"), nil), "Invalid password"},
		{securityError(SecurityUnsafeEntryType, "dev/null (special file)"), "Security violation: Unsafe entry type: dev/null (special file)"},
		{sizeLimitExceeded(2048, 1024), "Size limit exceeded: 2048 bytes > 1024 bytes"},
		{corrupted(io.ErrUnexpectedEOF), "Corrupted archive: unexpected EOF"},
		{cancelled(), "Cancelled by user"},
	}

	for _, cas := range cases {
		assert.EqualError(t, cas.err, cas.msg)
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := errors.Wrap(cancelled(), "while extracting")
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.True(t, IsCancelled(err))

	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.False(t, IsCancelled(io.EOF))
}

func TestIsPasswordError(t *testing.T) {
	assert.True(t, IsPasswordError(passwordError(nil, nil)))
	assert.True(t, IsPasswordError(passwordError(DefaultExtractOptions().WithPassword("x"), nil)))
	assert.False(t, IsPasswordError(corrupted(io.ErrUnexpectedEOF)))
	assert.False(t, IsPasswordError(nil))
}

func TestIoErrorPassesThroughClassified(t *testing.T) {
	sec := securityError(SecurityPathTraversal, "../x")
	assert.Equal(t, sec, ioError(sec))
	assert.Nil(t, ioError(nil))

	err := ioError(os.ErrPermission)
	assert.Equal(t, KindIo, KindOf(err))
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestClassifyBackendError(t *testing.T) {
	opts := DefaultExtractOptions()

	assert.Nil(t, classifyBackendError(opts, nil))
	assert.Equal(t, KindPasswordRequired, KindOf(classifyBackendError(opts, errors.Wrap(ErrPassword, "entry a.txt"))))
	assert.Equal(t, KindInvalidPassword, KindOf(classifyBackendError(opts.WithPassword("x"), ErrPassword)))
	assert.Equal(t, KindPasswordRequired, KindOf(classifyBackendError(opts, errors.New("file is encrypted"))))
	assert.Equal(t, KindCorrupted, KindOf(classifyBackendError(opts, errors.New("zip: not a valid zip file"))))

	sec := securityError(SecurityAbsolutePath, "/x")
	assert.Equal(t, sec, classifyBackendError(opts, sec))
}

func TestKindFromMode(t *testing.T) {
	assert.Equal(t, EntryFile, KindFromMode(0644))
	assert.Equal(t, EntryDir, KindFromMode(os.ModeDir|0755))
	assert.Equal(t, EntrySymlink, KindFromMode(os.ModeSymlink|0777))
	assert.Equal(t, EntryOther, KindFromMode(os.ModeNamedPipe|0644))
	assert.Equal(t, EntryOther, KindFromMode(os.ModeDevice|os.ModeCharDevice))
}
