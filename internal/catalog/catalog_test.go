package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

func TestGallery(t *testing.T) {
	if len(Gallery) != 3 {
		t.Fatalf("Gallery: got %d items, want 3", len(Gallery))
	}
	for _, item := range Gallery {
		if item.Title == "" || !strings.HasPrefix(item.URL, "https://") {
			t.Errorf("bad gallery item %+v", item)
		}
	}
}

func TestStudio(t *testing.T) {
	tests := []struct {
		id   string
		name string
	}{
		{"ink-haven", "Ink Haven"},
		{"BLACK-NEEDLE", "The Black Needle"},
		{" eternal-mark ", "Eternal Mark Studio"},
	}
	for _, tt := range tests {
		s, err := Studio(tt.id)
		if err != nil {
			t.Errorf("Studio(%q) failed: %v", tt.id, err)
			continue
		}
		if s.Name != tt.name {
			t.Errorf("Studio(%q): got %q, want %q", tt.id, s.Name, tt.name)
		}
	}

	if _, err := Studio("nowhere"); !errors.Is(err, ErrUnknownStudio) {
		t.Errorf("got %v, want ErrUnknownStudio", err)
	}
}

func TestStudios_SortedByRating(t *testing.T) {
	for i := 1; i < len(Studios); i++ {
		if Studios[i].Rating > Studios[i-1].Rating {
			t.Errorf("%s rated above %s", Studios[i].Name, Studios[i-1].Name)
		}
	}
}

func TestBookingQR(t *testing.T) {
	data, err := BookingQR("ink-haven", 256)
	if err != nil {
		t.Fatalf("BookingQR failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("QR is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Errorf("QR size: got %dx%d, want 256x256", b.Dx(), b.Dy())
	}

	if _, err := BookingQR("nowhere", 256); !errors.Is(err, ErrUnknownStudio) {
		t.Errorf("unknown studio: got %v", err)
	}
	for _, size := range []int{0, 63, 4096} {
		if _, err := BookingQR("ink-haven", size); err == nil {
			t.Errorf("size %d should be rejected", size)
		}
	}
}

func TestFetchImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Write(buf.Bytes())
		case "/text":
			w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	data, err := FetchImage(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Error("FetchImage should return the served bytes")
	}

	if _, err := FetchImage(context.Background(), srv.URL+"/text"); !errors.Is(err, compose.ErrUnsupportedFormat) {
		t.Errorf("non-image: got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := FetchImage(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("404 should fail")
	}
}
