// Package objectkey derives collision-resistant, transport-safe object keys
// from arbitrary caller-supplied filenames.
//
// Original filenames are untrusted input: they may contain Unicode, spaces,
// or characters that break S3 request signing when used verbatim as object
// keys. This package never uses the original name as part of the key; only
// the extension survives, filtered to a safe alphabet.
//
// Generated keys have the form:
//
//	prod_{unixMillis}_{ulid}{ext}
//
// e.g. prod_1724919000123_01J6AYVJ5NWZF8T4V0Q2XKQ9RD.png
//
// The ULID token keeps keys lexically sortable by creation time and supplies
// collision resistance even for calls within the same millisecond.
package objectkey

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	keyPrefix = "prod"

	// defaultExtension is used when the caller supplies no filename at all,
	// so the key still carries a recognizable binary extension.
	defaultExtension = ".bin"
)

var (
	// The monotonic entropy source guarantees strictly increasing ULIDs
	// within the same millisecond but is not safe for concurrent use.
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)

	// fallbackSeq keeps fallback tokens distinct when the entropy source
	// itself fails.
	fallbackSeq atomic.Uint64
)

// Generate maps an arbitrary filename to a safe object key. It never fails:
// an empty name yields a key with the ".bin" extension, and any characters
// outside [A-Za-z0-9] are stripped from the extension so the result is always
// usable as both a URL path segment and an object-store key without escaping.
func Generate(originalName string) string {
	now := time.Now().UTC()
	millis := ulid.Timestamp(now)

	entropyMu.Lock()
	token, err := ulid.New(millis, entropy)
	entropyMu.Unlock()
	if err != nil {
		// Monotonic overflow or unreadable entropy. A process-local
		// sequence keeps fallback tokens distinct within the millisecond,
		// so generation still cannot fail or collide in-process.
		var payload [10]byte
		binary.BigEndian.PutUint64(payload[2:], fallbackSeq.Add(1))
		_ = token.SetTime(millis)
		_ = token.SetEntropy(payload[:])
	}

	return fmt.Sprintf("%s_%d_%s%s", keyPrefix, now.UnixMilli(), token.String(), Extension(originalName))
}

// Extension returns the key extension derived from name: the substring from
// the last dot onward, filtered to [A-Za-z0-9] with a single leading dot.
// An empty name yields ".bin"; a name without a dot yields "".
func Extension(name string) string {
	if name == "" {
		return defaultExtension
	}

	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}

	var b strings.Builder
	for _, r := range name[idx:] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}
