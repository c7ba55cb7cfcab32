package colorclass

// Category is the named bucket a sticker color falls into.
type Category int

const (
	Unknown Category = iota
	White
	Red
	Orange
	Yellow
	Green
	Blue
)

var categoryNames = [...]string{
	Unknown: "Unknown",
	White:   "White",
	Red:     "Red",
	Orange:  "Orange",
	Yellow:  "Yellow",
	Green:   "Green",
	Blue:    "Blue",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[Unknown]
	}
	return categoryNames[c]
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{Unknown, White, Red, Orange, Yellow, Green, Blue}
}

// Classify buckets a color by its HSV coordinates.
func Classify(c Color) Category {
	return ClassifyHSV(ToHSV(c))
}

// ClassifyHSV applies the ordered rule list; the first matching rule wins.
// Hues 86-89 and 131-169 are deliberately left as Unknown.
func ClassifyHSV(hsv HSV) Category {
	h := hsv.H
	switch {
	case hsv.S < 50 && hsv.V > 200:
		return White
	case (h >= 0 && h <= 10) || (h >= 170 && h <= 180):
		return Red
	case h >= 11 && h <= 25:
		return Orange
	case h >= 26 && h <= 35:
		return Yellow
	case h >= 36 && h <= 85:
		return Green
	case h >= 90 && h <= 130:
		return Blue
	default:
		return Unknown
	}
}

// UnmarshalText decodes a category name. Unrecognised names map to Unknown.
func (c *Category) UnmarshalText(text []byte) error {
	*c = Unknown
	for i, name := range categoryNames {
		if name == string(text) {
			*c = Category(i)
			break
		}
	}
	return nil
}
