package imagefmt

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n...."), PNG},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, JPEG},
		{"gif87", []byte("GIF87a"), GIF},
		{"gif89", []byte("GIF89a"), GIF},
		{"bmp", []byte("BM\x00\x00"), BMP},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), WEBP},
		{"riff without webp", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), Unknown},
		{"short riff", []byte("RIFF"), Unknown},
		{"empty", nil, Unknown},
		{"text", []byte("hello"), Unknown},
		{"truncated jpeg", []byte{0xff, 0xd8}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatName(t *testing.T) {
	if PNG.Name() != "png" {
		t.Errorf("expected %q, got %q", "png", PNG.Name())
	}
	if Unknown.Name() != "bin" {
		t.Errorf("expected %q, got %q", "bin", Unknown.Name())
	}
}
