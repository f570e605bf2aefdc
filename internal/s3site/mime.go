package s3site

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// BetterMime wraps mime.TypeByExtension and handles a few edge cases.
func BetterMime(fname string) (mt string) {
	ext := strings.ToLower(filepath.Ext(fname))
	if mt = mime.TypeByExtension(ext); mt != "" {
		return
	} else if ext == ".ttf" {
		mt = "binary/octet-stream"
	}

	return
}

// ContentType picks the Content-Type for the file at path: by extension first,
// then by sniffing the content. It returns "" when neither works, leaving the
// choice to S3.
func ContentType(path string) string {
	if mt := BetterMime(path); mt != "" {
		return mt
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	return ""
}
