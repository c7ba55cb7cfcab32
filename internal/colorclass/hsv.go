package colorclass

import "math"

// HSV is a color in the half-circle hue space: H in [0,180], S and V in
// [0,255].
type HSV struct {
	H int `json:"h"`
	S int `json:"s"`
	V int `json:"v"`
}

const (
	hsvShift = 12
	hueRange = 180
)

// Fixed-point reciprocal tables. Values are rounded half to even so the
// conversion reproduces the 8-bit BGR->HSV transform bit for bit.
var sdivTable, hdivTable = buildDivTables()

func buildDivTables() (sdiv, hdiv [256]int) {
	for i := 1; i < 256; i++ {
		sdiv[i] = int(math.RoundToEven(float64(255<<hsvShift) / float64(i)))
		hdiv[i] = int(math.RoundToEven(float64(hueRange<<hsvShift) / (6 * float64(i))))
	}
	return sdiv, hdiv
}

// ToHSV converts a color to HSV using integer arithmetic only.
func ToHSV(c Color) HSV {
	b, g, r := int(c.B), int(c.G), int(c.R)

	v := max(b, g, r)
	diff := v - min(b, g, r)

	s := (diff*sdivTable[v] + (1 << (hsvShift - 1))) >> hsvShift

	var h int
	switch v {
	case r:
		h = g - b
	case g:
		h = b - r + 2*diff
	default:
		h = r - g + 4*diff
	}
	h = (h*hdivTable[diff] + (1 << (hsvShift - 1))) >> hsvShift
	if h < 0 {
		h += hueRange
	}

	return HSV{H: h, S: s, V: v}
}
