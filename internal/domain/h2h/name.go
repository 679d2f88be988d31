package h2h

// IndexPrefixLimit is the backend's byte-length limit (L) for a single
// indexed column: MySQL/InnoDB caps a utf8mb4 unique index key at 191
// bytes to stay under the 767-byte prefix limit.
const IndexPrefixLimit = 191

// MaxNameLength is the declared maximum byte length of a gallery or file
// name.
const MaxNameLength = 255

// NamePartCount is ⌈MaxNameLength/IndexPrefixLimit⌉, the fixed number of
// parts every split name is decomposed into.
const NamePartCount = 2

// NameParts is the deterministic, reversible fixed-width decomposition of
// a name into NamePartCount indexable column parts.
// concat(Part(0), Part(1), ..., Part(NamePartCount-1)) == the original
// name, and every part has length ≤ IndexPrefixLimit.
type NameParts [NamePartCount]string

// SplitName decomposes name into NameParts. name must be at most
// MaxNameLength bytes; longer names return ErrTooLong.
func SplitName(name string) (NameParts, error) {
	if len(name) > MaxNameLength {
		return NameParts{}, errTooLongf("name", name, MaxNameLength)
	}

	var parts NameParts
	remaining := name
	for i := 0; i < NamePartCount; i++ {
		if len(remaining) <= IndexPrefixLimit {
			parts[i] = remaining
			remaining = ""
			continue
		}
		parts[i] = remaining[:IndexPrefixLimit]
		remaining = remaining[IndexPrefixLimit:]
	}
	return parts, nil
}

// Join reassembles the original name from its parts.
func (p NameParts) Join() string {
	out := ""
	for _, part := range p {
		out += part
	}
	return out
}

// GalleryName is the stable natural key of a Gallery: its on-disk folder
// name, at most MaxNameLength bytes.
type GalleryName struct {
	value string
	parts NameParts
}

// NewGalleryName validates and splits a folder name into a GalleryName.
func NewGalleryName(folderName string) (GalleryName, error) {
	parts, err := SplitName(folderName)
	if err != nil {
		return GalleryName{}, err
	}
	return GalleryName{value: folderName, parts: parts}, nil
}

// String returns the full, unsplit gallery name.
func (n GalleryName) String() string {
	return n.value
}

// Parts returns the fixed-width index parts of the name.
func (n GalleryName) Parts() NameParts {
	return n.parts
}

// FileName is the natural key of a File relative to its Gallery: at most
// MaxNameLength bytes, split the same way as GalleryName.
type FileName struct {
	value string
	parts NameParts
}

// NewFileName validates and splits a file name into a FileName.
func NewFileName(name string) (FileName, error) {
	parts, err := SplitName(name)
	if err != nil {
		return FileName{}, err
	}
	return FileName{value: name, parts: parts}, nil
}

// String returns the full, unsplit file name.
func (n FileName) String() string {
	return n.value
}

// Parts returns the fixed-width index parts of the name.
func (n FileName) Parts() NameParts {
	return n.parts
}
