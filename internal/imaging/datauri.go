package imaging

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// IsDataURI reports whether s looks like a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// IsRemoteURL reports whether s is an http or https URL.
func IsRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// DecodeDataURI returns the declared media type and the payload of a base64 data URI.
func DecodeDataURI(s string) (string, []byte, error) {
	if !IsDataURI(s) {
		return "", nil, fmt.Errorf("%w: not a data uri", ErrUnsupported)
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed data uri", ErrUnsupported)
	}
	params := strings.Split(header, ";")
	if params[len(params)-1] != "base64" {
		return "", nil, fmt.Errorf("%w: data uri is not base64", ErrUnsupported)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some clients strip padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("%w: bad base64: %v", ErrUnsupported, err)
		}
	}
	return params[0], data, nil
}

// EncodeDataURI builds a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
