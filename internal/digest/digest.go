// Package digest is the hash-selection collaborator named in spec §6:
// given a line of input, produce the u64 Builder.Add and Reader.Exists
// consume. The core GCS engine never imports this package.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/binary"

	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// Algorithm selects the digest function a line is reduced through.
type Algorithm int

const (
	SHA1 Algorithm = iota
	SHA256
	SHA512
	MD5
	BLAKE2B
	// HEX treats the line itself as a precomputed hex digest, matching
	// gcstool's original behavior when piping a file of pre-hashed lines.
	HEX
)

func (a Algorithm) String() string {
	switch a {
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	case MD5:
		return "md5"
	case BLAKE2B:
		return "blake2b"
	case HEX:
		return "hex"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a CLI flag value to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	case "md5":
		return MD5, nil
	case "blake2b":
		return BLAKE2B, nil
	case "hex":
		return HEX, nil
	default:
		return 0, xerrors.Errorf("digest: unknown algorithm %q", name)
	}
}

// DefaultBits is the width taken from the leading end of a digest, the
// 60 bits (15 hex nibbles) the original tool used.
const DefaultBits = 60

// Hash digests line with algorithm a and returns the leading nbits bits
// of the digest as a u64, MSB-first. nbits outside (0, 64] falls back to
// DefaultBits.
func Hash(a Algorithm, line []byte, nbits int) (uint64, error) {
	if nbits <= 0 || nbits > 64 {
		nbits = DefaultBits
	}

	if a == HEX {
		nibbles := (nbits + 3) / 4
		v, err := hexPrefix(line, nibbles)
		if err != nil {
			return 0, xerrors.Errorf("digest: decoding hex line: %w", err)
		}
		return v >> uint(nibbles*4-nbits), nil
	}

	var sum []byte
	switch a {
	case SHA1:
		s := sha1.Sum(line)
		sum = s[:]
	case SHA256:
		s := sha256simd.Sum256(line)
		sum = s[:]
	case SHA512:
		s := sha512.Sum512(line)
		sum = s[:]
	case MD5:
		s := md5.Sum(line)
		sum = s[:]
	case BLAKE2B:
		s := blake2b.Sum256(line)
		sum = s[:]
	default:
		return 0, xerrors.Errorf("digest: unknown algorithm %d", a)
	}

	return leadingBits(sum, nbits), nil
}

// leadingBits returns the top nbits bits of sum, big-endian, right-
// aligned in a u64.
func leadingBits(sum []byte, nbits int) uint64 {
	var buf [8]byte
	copy(buf[:], sum)
	val := binary.BigEndian.Uint64(buf[:])
	if nbits >= 64 {
		return val
	}
	return val >> uint(64-nbits)
}

// hexPrefix parses the first nibbles hex characters of line into a u64,
// matching the original tool's u64_from_hex.
func hexPrefix(line []byte, nibbles int) (uint64, error) {
	if nibbles > 16 {
		nibbles = 16
	}
	if len(line) < nibbles {
		return 0, xerrors.Errorf("digest: hex line shorter than %d nibbles", nibbles)
	}

	var result uint64
	for _, c := range line[:nibbles] {
		v, ok := hexNibble(c)
		if !ok {
			return 0, xerrors.Errorf("digest: invalid hex character %q", c)
		}
		result = result<<4 | uint64(v)
	}
	return result, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
