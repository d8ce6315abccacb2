package imageprocessor

import (
	"path/filepath"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
	FormatHEIC    FormatType = "heic"
	FormatRAW     FormatType = "raw"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
	".heic": FormatHEIC,
	".heif": FormatHEIC,

	// RAW formats only have their dimensions probed through exiftool
	".dng": FormatRAW,
	".cr2": FormatRAW,
	".cr3": FormatRAW,
	".nef": FormatRAW,
	".arw": FormatRAW,
	".raf": FormatRAW,
}

// nativeFormats can be decoded without external tools
var nativeFormats = map[FormatType]bool{
	FormatJPEG: true,
	FormatPNG:  true,
	FormatGIF:  true,
	FormatTIFF: true,
	FormatBMP:  true,
	FormatWEBP: true,
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	format, ok := formatExtensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return FormatUnknown
	}
	return format
}

// IsJPEG checks if a file has a JPEG extension
func IsJPEG(path string) bool {
	return GetFileFormat(path) == FormatJPEG
}

// IsNativeFormat reports whether the format decodes in pure Go
func IsNativeFormat(format FormatType) bool {
	return nativeFormats[format]
}

// formatFromName maps a decoder or exiftool format name to a FormatType
func formatFromName(name string) FormatType {
	switch strings.ToLower(name) {
	case "jpeg", "jpg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "tiff", "tif":
		return FormatTIFF
	case "bmp":
		return FormatBMP
	case "webp":
		return FormatWEBP
	case "heic", "heif":
		return FormatHEIC
	case "dng", "cr2", "cr3", "nef", "arw", "raf":
		return FormatRAW
	default:
		return FormatUnknown
	}
}

// hasJPEGSignature checks for the SOI marker followed by another marker
func hasJPEGSignature(header []byte) bool {
	return len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF
}
