package storage

import (
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
)

// base64Pattern matches complete, correctly padded base64 text.
var base64Pattern = regexp.MustCompile(`^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`)

// normalizeContent converts the accepted upload content forms into a byte
// buffer. Strings matching the base64 alphabet are always decoded as base64;
// a binary string that happens to look like base64 will be mis-decoded. This
// is a documented limitation of the heuristic, not a decoding guarantee —
// callers with ambiguous payloads should pass []byte instead.
func normalizeContent(content any) ([]byte, error) {
	switch c := content.(type) {
	case nil:
		return nil, fmt.Errorf("%w: file content is required", ErrInvalidInput)
	case []byte:
		return c, nil
	case string:
		if c != "" && len(c)%4 == 0 && base64Pattern.MatchString(c) {
			if decoded, err := base64.StdEncoding.DecodeString(c); err == nil {
				return decoded, nil
			}
		}
		return []byte(c), nil
	case io.Reader:
		data, err := io.ReadAll(c)
		if err != nil {
			return nil, fmt.Errorf("%w: read file content: %v", ErrUnexpectedState, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported content type %T", ErrInvalidInput, content)
	}
}
