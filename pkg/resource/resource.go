package resource

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Content is one resolved resource. Text carries UTF-8 payloads; Blob holds
// base64 for everything else. Exactly one of the two is set.
type Content struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`

	Text string `json:"text,omitempty"`
	Blob string `json:"blob,omitempty"`
}

// SchemeError reports a resource URI outside the supported file scheme, or a
// URI whose target could not be read.
type SchemeError struct {
	URI string

	Reason string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("malformed resource %q: %s", e.URI, e.Reason)
}

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Read(uri string) (*Content, error) {
	parsed, err := url.Parse(uri)

	if err != nil {
		return nil, &SchemeError{URI: uri, Reason: err.Error()}
	}

	if parsed.Scheme != "file" {
		return nil, &SchemeError{URI: uri, Reason: "unsupported scheme " + parsed.Scheme}
	}

	path := parsed.Path

	if parsed.Host != "" && parsed.Host != "localhost" {
		return nil, &SchemeError{URI: uri, Reason: "unsupported host " + parsed.Host}
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, &SchemeError{URI: uri, Reason: err.Error()}
	}

	content := &Content{
		URI:      uri,
		MimeType: detectMimeType(path, data),
	}

	if utf8.Valid(data) && !strings.HasPrefix(content.MimeType, "application/octet-stream") {
		content.Text = string(data)
	} else {
		content.Blob = base64.StdEncoding.EncodeToString(data)
	}

	return content, nil
}

func detectMimeType(path string, data []byte) string {
	if val := mime.TypeByExtension(filepath.Ext(path)); val != "" {
		if parsed, _, err := mime.ParseMediaType(val); err == nil {
			return parsed
		}

		return val
	}

	sniffed := http.DetectContentType(data)

	if parsed, _, err := mime.ParseMediaType(sniffed); err == nil {
		return parsed
	}

	return sniffed
}
