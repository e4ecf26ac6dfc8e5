package buildinfo

import (
	"fmt"
	"strconv"
	"time"
)

// Set with -ldflags "-X github.com/itchio/crowbar/buildinfo.Version=..."
// on release builds.
var (
	Version = "head"
	// BuiltAt is a unix timestamp
	BuiltAt = ""
	Commit  = ""

	// VersionString is formatted on boot from the above
	VersionString = ""
)

func init() {
	VersionString = formatVersion(Version, BuildTime(), Commit)
}

// BuildTime parses BuiltAt, nil for dev builds
func BuildTime() *time.Time {
	if BuiltAt == "" {
		return nil
	}
	epoch, err := strconv.ParseInt(BuiltAt, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}

func formatVersion(version string, builtAt *time.Time, commit string) string {
	s := fmt.Sprintf("crowbar %s", version)
	if builtAt != nil {
		s = fmt.Sprintf("%s, built on %s", s, builtAt.Format("Jan _2 2006 @ 15:04:05"))
	} else {
		s = fmt.Sprintf("%s, no build date", s)
	}
	if commit != "" {
		s = fmt.Sprintf("%s, ref %s", s, commit)
	}
	return s
}
