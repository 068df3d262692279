package resource

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var gzipContentTypes = map[string]bool{
	"application/gzip":   true,
	"application/x-gzip": true,
}

var genericContentTypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"binary/octet-stream":      true,
}

// shouldInflate decides from the advertised content type (and, when the type is generic, the payload itself)
// whether the payload is gzip compressed.
func shouldInflate(contentType string, payload []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if gzipContentTypes[mediaType] {
		return true
	}
	if genericContentTypes[mediaType] {
		return isGzip(payload)
	}
	return false
}

func isGzip(payload []byte) bool {
	return mimetype.Detect(payload).Is("application/gzip")
}

func gunzip(payload []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("unable to inflate payload: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to inflate payload: %w", err)
	}
	return out, nil
}

func gzipBytes(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
