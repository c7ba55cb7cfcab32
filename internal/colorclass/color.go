// Package colorclass converts device colors to the 8-bit HSV space used by
// the face reader and buckets them into sticker categories.
package colorclass

import "fmt"

// Color is a device-native pixel color. Channels are stored in the capture
// order (blue, green, red), 8 bits each.
type Color struct {
	B uint8 `json:"b"`
	G uint8 `json:"g"`
	R uint8 `json:"r"`
}

// NewBGR builds a Color from channels in capture order.
func NewBGR(b, g, r uint8) Color {
	return Color{B: b, G: g, R: r}
}

// NewRGB builds a Color from channels in the usual red, green, blue order.
func NewRGB(r, g, b uint8) Color {
	return Color{B: b, G: g, R: r}
}

// CSS renders the color as "rgb(R,G,B)", the notation served to browsers.
func (c Color) CSS() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("bgr(%d,%d,%d)", c.B, c.G, c.R)
}
