package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURL builds a base64 data URL
func EncodeDataURL(mime string, body []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(body)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(body))
	return b.String()
}

// DecodeDataURL parses a base64 data URL into its body and MIME type
func DecodeDataURL(u string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data url")
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data url without payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return []byte(data), mime, nil
	}
	body, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("data url: %w", err)
	}
	return body, mime, nil
}
