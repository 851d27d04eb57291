package image

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"net/http"
	"path/filepath"
	"strings"
)

// Used when the upload cannot be identified; matches what clients
// overwhelmingly send.
const defaultExt = ".jpg"

// Info describes an uploaded image as far as it can be determined. Decoding
// is best effort: unknown or corrupt payloads yield an Info with an empty
// Format, never an error, since downstream services decide what they accept.
type Info struct {
	Format      string
	ContentType string
	Width       int
	Height      int
	Size        int
}

// Ext returns the file extension to stage the upload under.
func (i Info) Ext() string {
	switch i.Format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	}
	switch i.ContentType {
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return defaultExt
}

// Inspect reads the image header to determine format and dimensions.
func Inspect(data []byte) Info {
	info := Info{
		Size:        len(data),
		ContentType: http.DetectContentType(data),
	}
	if len(data) == 0 {
		return info
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return info
	}

	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info
}

// Filename picks the name to send upstream: the client's name when it has a
// usable extension, otherwise "upload" plus the detected extension.
func Filename(clientName string, info Info) string {
	base := filepath.Base(strings.ReplaceAll(clientName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	if filepath.Ext(base) == "" {
		base += info.Ext()
	}
	return base
}
