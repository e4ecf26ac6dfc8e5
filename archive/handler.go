package archive

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/itchio/headway/state"
	"github.com/pkg/errors"
)

// ErrPassword is returned (possibly wrapped) by backends when an entry or
// the whole container cannot be decrypted with the password they were given,
// including no password at all.
var ErrPassword = errors.New("archive: password missing or incorrect")

// EntryKind is what an archive member is, once the backend has decoded it
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
	EntrySymlink
	EntryHardlink
	// EntryOther covers devices, FIFOs, sockets and anything unknown
	EntryOther
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "directory"
	case EntrySymlink:
		return "symlink"
	case EntryHardlink:
		return "hardlink"
	}
	return "special file"
}

// RawEntry is a member as listed by a backend, before any validation
type RawEntry struct {
	Name string
	Kind EntryKind

	// Size is the declared uncompressed size
	Size           uint64
	CompressedSize *uint64

	// Linkname is the target of symlinks and hardlinks
	Linkname string

	// Mode holds permission bits, zero when the format has none
	Mode os.FileMode

	Encrypted bool

	// Undecodable is set when the codec could not produce a usable name.
	// Such entries are skipped rather than failing the whole archive.
	Undecodable bool
}

// OpenFunc streams the contents of the entry it was handed with. It is
// only valid for the duration of the WalkFunc call.
type OpenFunc func() (io.ReadCloser, error)

// WalkFunc is called once per member, in archive order. Any error it
// returns stops the walk and is returned by Walk as-is.
type WalkFunc func(entry *RawEntry, open OpenFunc) error

type WalkParams struct {
	// Path of the archive on disk, already resolved to its first part
	Path     string
	Format   Format
	Password *string

	// ListOnly is set by Probe: no entry will be opened, so backends can
	// skip work such as reading symlink targets
	ListOnly bool

	Consumer *state.Consumer
}

// GetConsumer never returns nil, so backends can log unconditionally
func (p *WalkParams) GetConsumer() *state.Consumer {
	return consumerOrSilent(p.Consumer)
}

// Handler adapts one container family to the engine
type Handler interface {
	Name() string
	Formats() []Format
	Walk(params *WalkParams, cb WalkFunc) error
}

var (
	handlersMu sync.RWMutex
	handlers   = make(map[Format]Handler)
)

// RegisterHandler makes a backend available for all the formats it claims.
// A later registration for the same format wins.
func RegisterHandler(h Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()

	for _, f := range h.Formats() {
		handlers[f] = h
	}
}

// GetHandler returns the backend registered for f, or nil
func GetHandler(f Format) Handler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()

	return handlers[f]
}

// Handlers lists registered backend names, for diagnostics
func Handlers() []string {
	handlersMu.RLock()
	defer handlersMu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, h := range handlers {
		if !seen[h.Name()] {
			seen[h.Name()] = true
			names = append(names, h.Name())
		}
	}
	return names
}

func handlerFor(f Format) (Handler, error) {
	h := GetHandler(f)
	if h == nil {
		return nil, unsupportedFormat(fmt.Sprintf("%s (no backend registered)", f))
	}
	return h, nil
}

// mentionsPassword reports whether a codec diagnostic is about encryption.
// Not every library has a typed error for it.
func mentionsPassword(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypted")
}

// classifyBackendError turns whatever a backend returned into the engine's
// taxonomy. Errors that are already classified pass through.
func classifyBackendError(opts *ExtractOptions, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	if errors.Is(err, ErrPassword) || mentionsPassword(err) {
		return passwordError(opts, err)
	}
	return corrupted(err)
}

// KindFromMode classifies an entry from its os.FileMode, for formats that
// store unix-style modes
func KindFromMode(mode os.FileMode) EntryKind {
	switch {
	case mode.IsDir():
		return EntryDir
	case mode&os.ModeSymlink != 0:
		return EntrySymlink
	case mode&(os.ModeDevice|os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket|os.ModeIrregular) != 0:
		return EntryOther
	}
	return EntryFile
}

// maxLinknameSize bounds how much of a symlink entry's body is read as its
// target, for formats that store link targets as file contents
const maxLinknameSize = 4096

// ReadLinkname reads a symlink target stored as entry contents
func ReadLinkname(open OpenFunc) (string, error) {
	rc, err := open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	buf, err := io.ReadAll(io.LimitReader(rc, maxLinknameSize+1))
	if err != nil {
		return "", err
	}
	if len(buf) > maxLinknameSize {
		return "", errors.Errorf("symlink target longer than %d bytes", maxLinknameSize)
	}
	return string(buf), nil
}
