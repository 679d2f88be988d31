package h2h

import (
	"fmt"
	"regexp"
	"strconv"
)

// gidPattern extracts the decimal integer inside a trailing "[...]" of a
// folder name, falling back to parsing the whole folder name when no
// brackets are present.
var gidPattern = regexp.MustCompile(`\[(\d+)\]\s*$`)

// GID is the public integer identifier assigned by the upstream service,
// embedded in the gallery's folder name.
type GID uint32

// ParseGIDFromFolderName derives the GID from a gallery folder name.
// If the name ends in a bracketed integer, that integer is the GID;
// otherwise the whole name is parsed as a decimal integer.
func ParseGIDFromFolderName(folderName string) (GID, error) {
	if m := gidPattern.FindStringSubmatch(folderName); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("parse gid from %q: %w", folderName, err)
		}
		return GID(n), nil
	}

	n, err := strconv.ParseUint(folderName, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse gid from %q: %w", folderName, err)
	}
	return GID(n), nil
}

// Uint32 returns the GID as a uint32.
func (g GID) Uint32() uint32 {
	return uint32(g)
}

// String returns the decimal representation of the GID.
func (g GID) String() string {
	return strconv.FormatUint(uint64(g), 10)
}
