package storage

import (
	"path/filepath"
	"strings"
)

var contentTypes = map[string]string{
	"css":   "text/css",
	"gif":   "image/gif",
	"html":  "text/html",
	"ico":   "image/vnd.microsoft.icon",
	"jpeg":  "image/jpeg",
	"jpg":   "image/jpeg",
	"js":    "application/javascript",
	"json":  "application/json",
	"mpeg":  "video/mpeg",
	"otf":   "font/otf",
	"png":   "image/png",
	"pdf":   "application/pdf",
	"svg":   "image/svg+xml",
	"tif":   "image/tiff",
	"tiff":  "image/tiff",
	"ts":    "video/mp2t",
	"ttf":   "font/ttf",
	"txt":   "text/plain",
	"weba":  "audio/webm",
	"webm":  "video/webm",
	"webp":  "image/webp",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"xhtml": "application/xhtml+xml",
	"xml":   "application/xml",
}

// ContentType returns the MIME type served for path, judged by extension.
// Unknown extensions return "" and are left to the S3 default.
func ContentType(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return contentTypes[ext]
}
