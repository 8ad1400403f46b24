package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/readyinterview/client-go/internal/common"
)

// HSL holds a color as hue (0-360), saturation and lightness (0-100).
type HSL struct {
	H int
	S int
	L int
}

func (c HSL) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.H, c.S, c.L)
}

// Lighter returns the color with lightness raised by delta, capped at 95.
func (c HSL) Lighter(delta int) HSL {
	c.L = min(c.L+delta, 95)
	return c
}

// Darker returns the color with lightness lowered by delta, floored at 10.
func (c HSL) Darker(delta int) HSL {
	c.L = max(c.L-delta, 10)
	return c
}

// ParseHex converts a "#rrggbb" or "#rgb" color into HSL.
func ParseHex(hex string) (HSL, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return HSL{}, fmt.Errorf("%w: invalid hex color %q", common.ErrValidation, hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return HSL{}, fmt.Errorf("%w: invalid hex color %q", common.ErrValidation, hex)
	}
	r := float64(v>>16&0xff) / 255
	g := float64(v>>8&0xff) / 255
	b := float64(v&0xff) / 255
	return fromRGB(r, g, b), nil
}

func fromRGB(r, g, b float64) HSL {
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	l := (maxc + minc) / 2

	var h, s float64
	if maxc != minc {
		d := maxc - minc
		if l > 0.5 {
			s = d / (2 - maxc - minc)
		} else {
			s = d / (maxc + minc)
		}
		switch maxc {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h *= 60
	}
	return HSL{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}
