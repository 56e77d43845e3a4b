package generate

import (
	"strings"
	"testing"
)

func TestNormalizeStyle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Traditional"},
		{"traditional", "Traditional"},
		{"JAPANESE", "Japanese"},
		{"  Watercolor ", "Watercolor"},
		{"geometric", "Geometric"},
	}
	for _, tt := range tests {
		got, err := NormalizeStyle(tt.in)
		if err != nil {
			t.Errorf("NormalizeStyle(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeStyle(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := NormalizeStyle("tribal-neon"); err == nil {
		t.Error("NormalizeStyle should reject unknown styles")
	}
}

func TestPresetSize(t *testing.T) {
	tests := []struct {
		label         string
		width, height int
	}{
		{"Small", 768, 1344},
		{"medium", 1024, 1024},
		{"LARGE", 1536, 640},
		{"", 1024, 1024},
	}
	for _, tt := range tests {
		p, err := PresetSize(tt.label)
		if err != nil {
			t.Errorf("PresetSize(%q) failed: %v", tt.label, err)
			continue
		}
		if p.Width != tt.width || p.Height != tt.height {
			t.Errorf("PresetSize(%q): got %dx%d, want %dx%d", tt.label, p.Width, p.Height, tt.width, tt.height)
		}
	}

	if _, err := PresetSize("Huge"); err == nil {
		t.Error("PresetSize should reject unknown labels")
	}
}

func TestEnhancePrompt(t *testing.T) {
	got := EnhancePrompt("  A dragon wrapped around a sword ", "Japanese")
	want := "A dragon wrapped around a sword, Japanese style tattoo, high quality, detailed, professional tattoo design"
	if got != want {
		t.Errorf("EnhancePrompt:\n got %q\nwant %q", got, want)
	}
}

func TestRequest_Normalize(t *testing.T) {
	req, err := Request{Prompt: " rose ", Width: 1024, Height: 1024}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if req.Prompt != "rose" || req.Style != DefaultStyle {
		t.Errorf("Normalize: got %+v", req)
	}

	bad := []Request{
		{Prompt: "", Width: 10, Height: 10},
		{Prompt: "rose", Style: "nope", Width: 10, Height: 10},
		{Prompt: "rose", Width: 0, Height: 10},
	}
	for _, r := range bad {
		if _, err := r.Normalize(); err == nil {
			t.Errorf("Normalize(%+v) should fail", r)
		}
	}
}

func TestRequest_Key(t *testing.T) {
	a := Request{Prompt: "rose", Style: "Minimalist", Width: 1024, Height: 1024}
	b := a
	if a.Key() != b.Key() {
		t.Error("equal requests should share a key")
	}
	b.Width = 768
	if a.Key() == b.Key() {
		t.Error("different sizes should change the key")
	}
	c := a
	c.Style = "Realistic"
	if a.Key() == c.Key() {
		t.Error("different styles should change the key")
	}
	if len(a.Key()) != 64 || strings.ContainsAny(a.Key(), "\x00 ") {
		t.Errorf("key should be hex sha256, got %q", a.Key())
	}
}
