package gemlink

import (
	"path/filepath"
	"strings"
)

// DefaultMIMEType is returned for extensions outside the image table.
const DefaultMIMEType = "application/octet-stream"

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// MIMEType resolves an image MIME type from a file path's extension.
// Unknown extensions yield DefaultMIMEType; the provider rejects payloads it
// cannot handle.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := imageMIMETypes[ext]; ok {
		return mt
	}
	return DefaultMIMEType
}
