package archive

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/itchio/headway/state"
	"github.com/pkg/errors"
)

// DefaultSizeLimit caps the bytes a single run may write: 20GiB
const DefaultSizeLimit uint64 = 20 * 1024 * 1024 * 1024

// OverwriteMode decides what happens when an entry's destination exists
type OverwriteMode int

const (
	// OverwriteRename writes "name (1).ext", "name (2).ext", etc.
	OverwriteRename OverwriteMode = iota
	// OverwriteReplace truncates the existing file
	OverwriteReplace
	// OverwriteSkip leaves the existing file alone and drops the entry
	OverwriteSkip
)

func (m OverwriteMode) String() string {
	switch m {
	case OverwriteReplace:
		return "replace"
	case OverwriteSkip:
		return "skip"
	default:
		return "rename"
	}
}

// ParseOverwriteMode accepts "replace", "skip" or "rename" in any case
func ParseOverwriteMode(s string) (OverwriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace":
		return OverwriteReplace, nil
	case "skip":
		return OverwriteSkip, nil
	case "rename", "":
		return OverwriteRename, nil
	}
	return OverwriteRename, errors.Errorf("unknown overwrite mode %q (expected replace, skip or rename)", s)
}

// ExtractOptions is read-only for the duration of a run
type ExtractOptions struct {
	Overwrite OverwriteMode

	// SizeLimit caps the total bytes written; nil means no limit
	SizeLimit *uint64

	// StripComponents removes that many leading segments from every entry path
	StripComponents uint32

	AllowSymlinks  bool
	AllowHardlinks bool

	// Password is nil when the caller has none to offer
	Password *string

	// Resume lists entries an earlier attempt already wrote, as found in
	// its ExtractStats.Written. They are not written again.
	Resume map[string]string
}

// DefaultExtractOptions renames on conflict and caps output at DefaultSizeLimit
func DefaultExtractOptions() *ExtractOptions {
	limit := DefaultSizeLimit
	return &ExtractOptions{
		Overwrite: OverwriteRename,
		SizeLimit: &limit,
	}
}

// WithPassword returns a copy of the options carrying another password,
// for callers that retry after a password error.
func (o *ExtractOptions) WithPassword(password string) *ExtractOptions {
	res := *o
	res.Password = &password
	return &res
}

// ExtractStats is owned by the goroutine driving the extraction
type ExtractStats struct {
	FilesExtracted uint64
	BytesWritten   uint64
	Duration       time.Duration
	Cancelled      bool

	// Written maps every file and link entry, after stripping, to the
	// path it was written to
	Written map[string]string
}

// Entry refers to a member of an archive
type Entry struct {
	Path             string  `json:"path"`
	IsDir            bool    `json:"isDirectory"`
	UncompressedSize uint64  `json:"size"`
	CompressedSize   *uint64 `json:"compressedSize,omitempty"`
}

// ArchiveInfo is what a probe learns about an archive without extracting it
type ArchiveInfo struct {
	Format               Format   `json:"-"`
	Entries              uint64   `json:"entries"`
	CompressedBytes      *uint64  `json:"compressedBytes,omitempty"`
	UncompressedEstimate *uint64  `json:"uncompressedEstimate,omitempty"`
	Encrypted            bool     `json:"encrypted"`
	EntryList            []*Entry `json:"entryList"`
}

// CancelFlag is shared between an extraction and whoever may want to stop
// it. A nil *CancelFlag is never cancelled.
type CancelFlag struct {
	v atomic.Bool
}

func NewCancelFlag() *CancelFlag {
	return &CancelFlag{}
}

func (c *CancelFlag) Cancel() {
	if c != nil {
		c.v.Store(true)
	}
}

func (c *CancelFlag) IsCancelled() bool {
	return c != nil && c.v.Load()
}

// ProgressFunc is called after each file is fully written, with the
// cumulative bytes written so far and the entry's own size. Returning
// false stops the extraction as if it had been cancelled.
type ProgressFunc func(file string, bytesSoFar uint64, total *uint64) bool

type ExtractParams struct {
	ArchivePath string
	OutputDir   string
	Options     *ExtractOptions

	OnProgress ProgressFunc
	Cancel     *CancelFlag

	Consumer *state.Consumer
}

type ProbeParams struct {
	ArchivePath string

	Consumer *state.Consumer
}

func consumerOrSilent(consumer *state.Consumer) *state.Consumer {
	if consumer == nil {
		return &state.Consumer{}
	}
	return consumer
}
