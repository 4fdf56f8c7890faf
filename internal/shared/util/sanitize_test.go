package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "notes.pdf", want: "notes.pdf"},
		{in: "  C:\\Users\\me\\chapter 1.pdf ", want: "chapter 1.pdf"},
		{in: "dir/sub/slides.pdf", want: "slides.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	tests := []string{
		strings.Repeat("é", 200) + ".pdf",
		strings.Repeat("a", 300) + ".pdf",
		strings.Repeat("日本", 100) + ".pdf",
	}
	for _, in := range tests {
		got, err := SanitizeFileName(in)
		if err != nil {
			t.Fatalf("SanitizeFileName: %v", err)
		}
		if len(got) > maxFileNameLen {
			t.Fatalf("len = %d, want <= %d", len(got), maxFileNameLen)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("result is not valid UTF-8: %q", got)
		}
		if !strings.HasSuffix(got, ".pdf") {
			t.Fatalf("extension lost: %q", got)
		}
	}
}
