// Package lettering checks the text in a generated design.
//
// Image generators often misspell words in script tattoos. Check runs
// Tesseract OCR (via gosseract/v2) on a design and compares the recognized
// words with the lettering the customer asked for.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The default language is English ("eng"). Other Tesseract language codes
// such as "deu" or "fra" work when their data is installed.
//
// # Accuracy
//
// Decorative script is hard to read for OCR. A low score means the lettering
// should be checked by eye, not that it is necessarily wrong.
package lettering
