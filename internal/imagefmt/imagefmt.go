// Package imagefmt identifies image payloads by their leading magic bytes.
package imagefmt

import "bytes"

// Format is a file extension including the leading dot.
type Format string

const (
	PNG     Format = ".png"
	JPEG    Format = ".jpg"
	GIF     Format = ".gif"
	BMP     Format = ".bmp"
	WEBP    Format = ".webp"
	Unknown Format = ".bin"
)

var signatures = []struct {
	magic  []byte
	format Format
}{
	{[]byte("\x89PNG"), PNG},
	{[]byte("\xff\xd8\xff"), JPEG},
	{[]byte("GIF8"), GIF},
	{[]byte("BM"), BMP},
}

// Detect returns the format of data. It never fails; payloads without a
// known signature are reported as Unknown.
func Detect(data []byte) Format {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.format
		}
	}
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return WEBP
	}
	return Unknown
}

// Name is the format tag without the leading dot, e.g. "png".
func (f Format) Name() string {
	if len(f) > 0 && f[0] == '.' {
		return string(f[1:])
	}
	return string(f)
}
