package h2h

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm identifies one of the eleven content digest algorithms
// maintained per File. Only SHA512 is used for duplicate
// detection; the rest are kept for parity with the source format's hash
// dictionary tables.
type HashAlgorithm string

const (
	SHA1     HashAlgorithm = "sha1"
	SHA224   HashAlgorithm = "sha224"
	SHA256   HashAlgorithm = "sha256"
	SHA384   HashAlgorithm = "sha384"
	SHA512   HashAlgorithm = "sha512"
	SHA3224  HashAlgorithm = "sha3_224"
	SHA3256  HashAlgorithm = "sha3_256"
	SHA3384  HashAlgorithm = "sha3_384"
	SHA3512  HashAlgorithm = "sha3_512"
	Blake2b  HashAlgorithm = "blake2b"
	Blake2s  HashAlgorithm = "blake2s"
)

// DuplicateDetectionAlgorithm is the single algorithm whose digest is
// compared to find duplicate files.
const DuplicateDetectionAlgorithm = SHA512

// HashAlgorithms lists every maintained algorithm, in the fixed order
// their dictionary/mapping table pairs are created in the schema.
var HashAlgorithms = []HashAlgorithm{
	SHA1, SHA224, SHA256, SHA384, SHA512,
	SHA3224, SHA3256, SHA3384, SHA3512,
	Blake2b, Blake2s,
}

// DigestLength returns the hex-encoded digest length in bytes for the
// algorithm, used to size the dictionary table's value column.
func (a HashAlgorithm) DigestLength() int {
	switch a {
	case SHA1:
		return 40
	case SHA224, SHA3224:
		return 56
	case SHA256, SHA3256, Blake2s:
		return 64
	case SHA384, SHA3384:
		return 96
	case SHA512, SHA3512, Blake2b:
		return 128
	default:
		return 0
	}
}

// New returns a fresh hash.Hash for the algorithm. Panics on an unknown
// algorithm since HashAlgorithms is the exhaustive, closed set.
func (a HashAlgorithm) New() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New()
	case SHA224:
		return sha256.New224()
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	case SHA3224:
		return sha3.New224()
	case SHA3256:
		return sha3.New256()
	case SHA3384:
		return sha3.New384()
	case SHA3512:
		return sha3.New512()
	case Blake2b:
		h, _ := blake2b.New512(nil)
		return h
	case Blake2s:
		return newBlake2s256()
	default:
		panic(fmt.Sprintf("h2h: unknown hash algorithm %q", a))
	}
}

func newBlake2s256() hash.Hash {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// TableName returns the dictionary table name for the algorithm, e.g.
// "hashes_sha512".
func (a HashAlgorithm) TableName() string {
	return "hashes_" + string(a)
}

// Valid reports whether a is one of the eleven maintained algorithms.
func (a HashAlgorithm) Valid() bool {
	for _, known := range HashAlgorithms {
		if known == a {
			return true
		}
	}
	return false
}
