// Package catalog holds the inspiration gallery and the studio listings
// shown next to the design tools.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

// ErrUnknownStudio is returned for a studio id that is not listed.
var ErrUnknownStudio = errors.New("unknown studio")

// GalleryItem is an example tattoo photo.
type GalleryItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Gallery lists the inspiration photos.
var Gallery = []GalleryItem{
	{Title: "Wolf", URL: "https://cdn.shopify.com/s/files/1/0162/2116/files/Wolf_tatto.jpg?v=1719483738"},
	{Title: "Bird", URL: "https://cdn.shopify.com/s/files/1/0162/2116/files/t8shwd3c51311.jpg?v=1719484070"},
	{Title: "Nature", URL: "https://cdn.shopify.com/s/files/1/0162/2116/files/Screen_Shot_2024-06-27_at_3.55.21_PM.png?v=1719483944"},
}

// StudioInfo describes a tattoo studio.
type StudioInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
	BookingURL  string  `json:"booking_url"`
}

// Studios lists the studios, best rated first.
var Studios = []StudioInfo{
	{
		ID:          "ink-haven",
		Name:        "Ink Haven",
		Location:    "Camden Town, London",
		Rating:      4.9,
		Description: "Specialists in minimalist and fine-line tattoos. Walk-ins welcome.",
		BookingURL:  "https://example.com/studios/ink-haven/book",
	},
	{
		ID:          "eternal-mark",
		Name:        "Eternal Mark Studio",
		Location:    "Brighton Seafront",
		Rating:      4.8,
		Description: "Beachside studio known for vibrant colors and sleeve work.",
		BookingURL:  "https://example.com/studios/eternal-mark/book",
	},
	{
		ID:          "black-needle",
		Name:        "The Black Needle",
		Location:    "Northern Quarter, Manchester",
		Rating:      4.7,
		Description: "Award-winning realism artists with custom design services.",
		BookingURL:  "https://example.com/studios/black-needle/book",
	},
}

// Studio returns the studio with the given id.
func Studio(id string) (StudioInfo, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range Studios {
		if s.ID == id {
			return s, nil
		}
	}
	return StudioInfo{}, fmt.Errorf("%w: %q", ErrUnknownStudio, id)
}

// BookingQR returns a size x size PNG QR code for the studio's booking page.
func BookingQR(id string, size int) ([]byte, error) {
	s, err := Studio(id)
	if err != nil {
		return nil, err
	}
	if size < 64 || size > 2048 {
		return nil, fmt.Errorf("QR size %d outside [64, 2048]", size)
	}
	png, err := qrcode.Encode(s.BookingURL, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// maxImageBytes bounds a fetched gallery image.
const maxImageBytes = 20 << 20

// FetchImage downloads an image so a gallery photo can be used as a design
// or background. The bytes are checked to decode before they are returned.
func FetchImage(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	if _, err := compose.Decode(data); err != nil {
		return nil, err
	}
	return data, nil
}
