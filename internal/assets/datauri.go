package assets

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// SupportedMIMETypes are the upload formats accepted by the studio.
var SupportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ParseDataURI splits a base64 data URI into its MIME type and raw bytes.
func ParseDataURI(uri string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("not a data URI")
	}
	rest := strings.TrimPrefix(uri, "data:")
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return "", nil, fmt.Errorf("malformed data URI: missing comma")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("malformed data URI: only base64 encoding is supported")
	}
	mimeType = strings.TrimSuffix(meta, ";base64")
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// ToDataURI encodes raw image bytes as a base64 data URI.
func ToDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// SniffMIME detects the MIME type of raw image bytes.
func SniffMIME(data []byte) string {
	return http.DetectContentType(data)
}

// ValidateUpload checks that the bytes are a supported image format and
// returns the detected MIME type.
func ValidateUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload")
	}
	mime := SniffMIME(data)
	if !SupportedMIMETypes[mime] {
		return "", fmt.Errorf("unsupported image type %q: must be JPEG, PNG or WebP", mime)
	}
	return mime, nil
}
