// internal/models/card.go
package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Color is the color printed on one face of a card.
type Color uint8

const (
	ColorNone Color = iota

	// light side
	ColorRed
	ColorBlue
	ColorGreen
	ColorYellow

	// dark side (Flip only)
	ColorTeal
	ColorPink
	ColorOrange
	ColorPurple

	ColorWild
	ColorWildDark
)

var colorNames = map[Color]string{
	ColorNone:     "",
	ColorRed:      "red",
	ColorBlue:     "blue",
	ColorGreen:    "green",
	ColorYellow:   "yellow",
	ColorTeal:     "teal",
	ColorPink:     "pink",
	ColorOrange:   "orange",
	ColorPurple:   "purple",
	ColorWild:     "black",
	ColorWildDark: "wild_dark",
}

// LightColors lists the four playable light-side colors in deck order.
var LightColors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// DarkColors lists the four playable dark-side colors, index-aligned with their light pair.
var DarkColors = []Color{ColorTeal, ColorPink, ColorOrange, ColorPurple}

func (c Color) String() string {
	if s, ok := colorNames[c]; ok {
		return s
	}
	return fmt.Sprintf("invalid_color(%d)", uint8(c))
}

// IsWild reports whether the color marks a wild face on either side.
func (c Color) IsWild() bool {
	return c == ColorWild || c == ColorWildDark
}

// IsDark reports whether c is one of the four dark-side hues.
func (c Color) IsDark() bool {
	return c >= ColorTeal && c <= ColorPurple
}

// IsLight reports whether c is one of the four light-side hues.
func (c Color) IsLight() bool {
	return c >= ColorRed && c <= ColorYellow
}

// Flipped maps a hue to its partner on the other side. Wild markers and
// ColorNone map to themselves. Applying Flipped twice returns c.
func (c Color) Flipped() Color {
	switch c {
	case ColorRed:
		return ColorTeal
	case ColorBlue:
		return ColorPink
	case ColorGreen:
		return ColorOrange
	case ColorYellow:
		return ColorPurple
	case ColorTeal:
		return ColorRed
	case ColorPink:
		return ColorBlue
	case ColorOrange:
		return ColorGreen
	case ColorPurple:
		return ColorYellow
	default:
		return c
	}
}

func (c Color) MarshalText() ([]byte, error) {
	s, ok := colorNames[c]
	if !ok {
		return nil, errors.Errorf("invalid color %d", uint8(c))
	}
	return []byte(s), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	for k, v := range colorNames {
		if v == string(b) {
			*c = k
			return nil
		}
	}
	return errors.Errorf("unknown color %q", string(b))
}

// Value is the symbol printed on a card face.
type Value uint8

const (
	ValueZero Value = iota
	ValueOne
	ValueTwo
	ValueThree
	ValueFour
	ValueFive
	ValueSix
	ValueSeven
	ValueEight
	ValueNine
	ValueSkip
	ValueReverse
	ValueDrawTwo
	ValueWild
	ValueWildDrawFour

	// No-Mercy
	ValueSkipEveryone
	ValueDiscardAll
	ValueWildDrawSix
	ValueWildDrawTen
	ValueWildColorRoulette

	// Flip
	ValueDrawFive
	ValueFlip
	ValueWildDrawColor
)

var valueNames = map[Value]string{
	ValueZero:              "0",
	ValueOne:               "1",
	ValueTwo:               "2",
	ValueThree:             "3",
	ValueFour:              "4",
	ValueFive:              "5",
	ValueSix:               "6",
	ValueSeven:             "7",
	ValueEight:             "8",
	ValueNine:              "9",
	ValueSkip:              "skip",
	ValueReverse:           "reverse",
	ValueDrawTwo:           "+2",
	ValueWild:              "wild",
	ValueWildDrawFour:      "+4",
	ValueSkipEveryone:      "skip_all",
	ValueDiscardAll:        "discard_all",
	ValueWildDrawSix:       "+6",
	ValueWildDrawTen:       "+10",
	ValueWildColorRoulette: "roulette",
	ValueDrawFive:          "+5",
	ValueFlip:              "flip",
	ValueWildDrawColor:     "wild_color",
}

func (v Value) String() string {
	if s, ok := valueNames[v]; ok {
		return s
	}
	return fmt.Sprintf("invalid_value(%d)", uint8(v))
}

// IsNumber reports whether v is one of the numerals 0-9.
func (v Value) IsNumber() bool {
	return v <= ValueNine
}

func (v Value) MarshalText() ([]byte, error) {
	s, ok := valueNames[v]
	if !ok {
		return nil, errors.Errorf("invalid value %d", uint8(v))
	}
	return []byte(s), nil
}

func (v *Value) UnmarshalText(b []byte) error {
	for k, name := range valueNames {
		if name == string(b) {
			*v = k
			return nil
		}
	}
	return errors.Errorf("unknown card value %q", string(b))
}

// Kind classifies a face as a numeral, a colored action or a wild.
type Kind uint8

const (
	KindNumber Kind = iota
	KindAction
	KindWild
)

var kindNames = [...]string{"number", "action", "wild"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("invalid_kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, errors.Errorf("invalid kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.Errorf("unknown card kind %q", string(b))
}

// CardFace is one printed side of a card.
type CardFace struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
	Kind  Kind  `json:"type"`
}

// IsWild reports whether the face is wild-colored and therefore needs a color choice.
func (f CardFace) IsWild() bool {
	return f.Color.IsWild()
}

func (f CardFace) String() string {
	return fmt.Sprintf("%s %s", f.Color, f.Value)
}

// NewNumberFace, NewActionFace and NewWildFace build faces of each kind.
func NewNumberFace(c Color, v Value) CardFace { return CardFace{Color: c, Value: v, Kind: KindNumber} }
func NewActionFace(c Color, v Value) CardFace { return CardFace{Color: c, Value: v, Kind: KindAction} }
func NewWildFace(c Color, v Value) CardFace   { return CardFace{Color: c, Value: v, Kind: KindWild} }

// InertDarkFace is given to every card of a non-Flip deck. It is never shown or evaluated.
var InertDarkFace = NewNumberFace(ColorOrange, ValueOne)

// Card is a physical card: one id bound to a light and a dark face.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Light CardFace  `json:"light"`
	Dark  CardFace  `json:"dark"`
}

// Face returns the face that is in effect for the given side.
func (c Card) Face(side Side) CardFace {
	if side == SideDark {
		return c.Dark
	}
	return c.Light
}
