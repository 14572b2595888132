package usecase

import (
	"bytes"
	"errors"
	"math"

	"github.com/ledongthuc/pdf"
)

// US letter, in PDF points.
const (
	letterWidthPt  = 612.0
	letterHeightPt = 792.0
	pageSizeSlack  = 1.0
)

var errMalformedPDF = errors.New("malformed pdf")

// pagesAreLetterSized reports whether every page of the document has a letter
// media box. The pdf package panics on malformed input, so the whole read is
// fenced with a recover that surfaces as an error.
func pagesAreLetterSized(data []byte) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = errMalformedPDF
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false, err
	}

	pages := reader.NumPage()
	if pages == 0 {
		return false, errMalformedPDF
	}

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return false, errMalformedPDF
		}
		// MediaBox may be inherited from a Pages tree node; the library's
		// MediaBox helper is commented out at the pinned version, so the
		// inherited lookup is done inline.
		var box pdf.Value
		for v := page.V; !v.IsNull(); v = v.Key("Parent") {
			if b := v.Key("MediaBox"); !b.IsNull() {
				box = b
				break
			}
		}
		if box.Len() != 4 {
			return false, errMalformedPDF
		}
		width := box.Index(2).Float64() - box.Index(0).Float64()
		height := box.Index(3).Float64() - box.Index(1).Float64()
		if math.Abs(width-letterWidthPt) > pageSizeSlack ||
			math.Abs(height-letterHeightPt) > pageSizeSlack {
			return false, nil
		}
	}
	return true, nil
}
