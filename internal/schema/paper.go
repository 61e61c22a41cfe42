package schema

// PaperSize is the supported page format set.
type PaperSize string

const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "LETTER"
	PaperLegal  PaperSize = "LEGAL"
)

// Orientation of the rendered page.
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// Dimensions returns the page width and height in millimeters for the given
// orientation. Unknown sizes fall back to A4 portrait.
func (p PaperSize) Dimensions(o Orientation) (w, h float64) {
	switch p {
	case PaperLetter:
		w, h = 215.9, 279.4
	case PaperLegal:
		w, h = 215.9, 355.6
	default:
		w, h = 210, 297
	}
	if o == OrientationLandscape {
		w, h = h, w
	}
	return w, h
}

// Valid reports whether p names a supported format.
func (p PaperSize) Valid() bool {
	switch p {
	case PaperA4, PaperLetter, PaperLegal:
		return true
	}
	return false
}

// Valid reports whether o names a supported orientation.
func (o Orientation) Valid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}
