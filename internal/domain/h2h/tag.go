package h2h

import "strings"

// UntaggedNamespace is the tag namespace used when a tag has no value,
// matching the upstream convention of a bare "tagname" entry.
const UntaggedNamespace = "untagged"

// TagPair is a normalized (name, value) pair describing a Gallery. Both
// fields are limited to IndexPrefixLimit bytes since each is stored in a
// dictionary table keyed by a unique index.
type TagPair struct {
	name  string
	value string
}

// NewTagPair validates and constructs a TagPair. An empty name is
// normalized to UntaggedNamespace, matching the source format's bare
// "tagvalue" entries (no namespace prefix).
func NewTagPair(name, value string) (TagPair, error) {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" {
		name = UntaggedNamespace
	}
	if len(name) > IndexPrefixLimit {
		return TagPair{}, errTooLongf("tag name", name, IndexPrefixLimit)
	}
	if len(value) > IndexPrefixLimit {
		return TagPair{}, errTooLongf("tag value", value, IndexPrefixLimit)
	}
	return TagPair{name: name, value: value}, nil
}

// MustNewTagPair is NewTagPair, panicking on error. For tests and
// compile-time-known tag literals only.
func MustNewTagPair(name, value string) TagPair {
	t, err := NewTagPair(name, value)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the tag's namespace, e.g. "artist" or UntaggedNamespace.
func (t TagPair) Name() string { return t.name }

// Value returns the tag's value, e.g. "oda eiichiro" or a bare token.
func (t TagPair) Value() string { return t.value }

// String renders the tag in "name:value" form, or bare "value" when
// untagged.
func (t TagPair) String() string {
	if t.name == UntaggedNamespace {
		return t.value
	}
	return t.name + ":" + t.value
}

// ParseTagPair parses a single tag entry from a galleryinfo.txt Tags
// line, splitting on the first colon. A bare token with no colon, or an
// empty name before the colon, has no namespace: it is stored as
// UntaggedNamespace with the token itself as the value.
func ParseTagPair(raw string) (TagPair, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, ":"); idx >= 0 {
		return NewTagPair(raw[:idx], raw[idx+1:])
	}
	return NewTagPair("", raw)
}
