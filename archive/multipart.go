package archive

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	rarPartRe   = regexp.MustCompile(`(?i)^(.*\.part)(\d+)(\.rar)$`)
	rarOldVolRe = regexp.MustCompile(`(?i)^(.*)\.r(\d{2,})$`)
	zipPartRe   = regexp.MustCompile(`(?i)^.*\.part\d+\.zip$`)
	splitRe     = regexp.MustCompile(`(?i)^.*\.(7z|zip)\.(\d+)$`)
)

// Volume describes where an archive actually starts
type Volume struct {
	// Path is the file to open: the first part for multi-part archives
	Path      string
	Format    Format
	MultiPart bool
}

// ResolveVolume detects multi-part archives by name. RAR sets are resolved
// to their first part. Split 7z and zip sets are refused outright, since
// opening only their first part would silently extract a fraction of them.
func ResolveVolume(archivePath string) (*Volume, error) {
	dir, name := filepath.Split(archivePath)

	if m := rarPartRe.FindStringSubmatch(name); m != nil {
		first := fmt.Sprintf("%0*d", len(m[2]), 1)
		return &Volume{
			Path:      filepath.Join(dir, m[1]+first+m[3]),
			Format:    FormatRar,
			MultiPart: true,
		}, nil
	}

	if m := rarOldVolRe.FindStringSubmatch(name); m != nil {
		ext := ".rar"
		if strings.ToUpper(name) == name {
			ext = ".RAR"
		}
		return &Volume{
			Path:      filepath.Join(dir, m[1]+ext),
			Format:    FormatRar,
			MultiPart: true,
		}, nil
	}

	if m := splitRe.FindStringSubmatch(name); m != nil {
		kind := strings.ToLower(m[1])
		return nil, unsupportedFormat(fmt.Sprintf(
			"split %s archive %s: multi-part %s is not supported, join the parts into a single .%s file first",
			kind, name, kind, kind))
	}

	if zipPartRe.MatchString(name) {
		return nil, unsupportedFormat(fmt.Sprintf(
			"multi-part zip archive %s is not supported, join the parts into a single .zip file first", name))
	}

	format, err := Detect(archivePath)
	if err != nil {
		return nil, err
	}
	return &Volume{Path: archivePath, Format: format}, nil
}
