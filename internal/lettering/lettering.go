package lettering

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"

	dimaging "github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// minOCREdge is the longer edge small designs are upscaled to before OCR.
const minOCREdge = 1200

// Bounds represents a rectangular bounding box in design pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Word is a recognized word with its location and OCR confidence.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Bounds     Bounds  `json:"bounds"`
}

// Result is the outcome of a lettering check.
type Result struct {
	Expected string `json:"expected"`

	// Recognized is all recognized text.
	Recognized string `json:"recognized"`

	// Found and Missing partition the expected words.
	Found   []string `json:"found"`
	Missing []string `json:"missing"`

	// Score is len(Found) / number of expected words.
	Score float64 `json:"score"`

	Words []Word `json:"words"`
}

// Check reads the lettering in an encoded design and compares it with the
// expected text. Matching ignores case and punctuation.
func Check(design []byte, expected, language string) (*Result, error) {
	if len(words(expected)) == 0 {
		return nil, errors.New("expected text has no words")
	}
	if language == "" {
		language = DefaultLanguage
	}

	img, err := compose.Decode(design)
	if err != nil {
		return nil, err
	}
	prepared, scale := prepare(img)
	data, err := compose.EncodePNG(prepared)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	var recognized []Word
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil {
		for _, box := range boxes {
			if strings.TrimSpace(box.Word) == "" {
				continue
			}
			recognized = append(recognized, Word{
				Text:       box.Word,
				Confidence: box.Confidence / 100.0,
				Bounds: Bounds{
					X1: int(float64(box.Box.Min.X) / scale),
					Y1: int(float64(box.Box.Min.Y) / scale),
					X2: int(float64(box.Box.Max.X) / scale),
					Y2: int(float64(box.Box.Max.Y) / scale),
				},
			})
		}
	}

	result := Compare(expected, text)
	result.Words = recognized
	return result, nil
}

// prepare flattens transparency onto white and upscales small designs,
// returning the scale factor applied.
func prepare(img *image.NRGBA) (*image.NRGBA, float64) {
	b := img.Bounds()
	paper := dimaging.New(b.Dx(), b.Dy(), color.White)
	flat := compose.Flatten(paper, img)

	long := max(b.Dx(), b.Dy())
	if long >= minOCREdge {
		return flat, 1
	}
	scale := float64(minOCREdge) / float64(long)
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	return dimaging.Resize(flat, w, h, dimaging.Lanczos), float64(w) / float64(b.Dx())
}

// Compare scores recognized text against the expected lettering. Each
// expected word is matched at most once, so "la la land" needs two "la".
func Compare(expected, recognized string) *Result {
	want := words(expected)
	have := make(map[string]int)
	for _, w := range words(recognized) {
		have[w]++
	}

	result := &Result{
		Expected:   expected,
		Recognized: strings.TrimSpace(recognized),
		Found:      []string{},
		Missing:    []string{},
	}
	for _, w := range want {
		if have[w] > 0 {
			have[w]--
			result.Found = append(result.Found, w)
		} else {
			result.Missing = append(result.Missing, w)
		}
	}
	if len(want) > 0 {
		result.Score = float64(len(result.Found)) / float64(len(want))
	}
	return result
}

// words splits s into lowercase words of letters and digits.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
