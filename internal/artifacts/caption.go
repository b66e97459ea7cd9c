package artifacts

import (
	"image/color"
	"strconv"
	"strings"
)

type Caption struct {
	Text       string `json:"text" validate:"max=200"`
	Top        string `json:"top" validate:"max=16"`
	Left       string `json:"left" validate:"max=16"`
	FontSize   int    `json:"fontSize,omitempty" validate:"omitempty,min=8,max=160"`
	FontFamily string `json:"fontFamily,omitempty" validate:"max=64"`
	Color      string `json:"color,omitempty" validate:"max=32"`
	Width      string `json:"width,omitempty" validate:"max=16"`
}

// Placeholder is what a player who ran out of time submits.
func Placeholder() Caption {
	return Caption{Text: " ", Top: "20%", Left: "10%"}
}

// offset resolves a CSS-like length ("20%", "35px", "12") against total.
// Bare numbers are read as percentages.
func offset(raw string, total int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if px, ok := strings.CutSuffix(raw, "px"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(px), 64)
		if err != nil {
			return 0
		}
		return clamp(int(v), 0, total)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return 0
	}
	return clamp(int(v*float64(total)/100), 0, total)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

var named = map[string]color.RGBA{
	"white":  {255, 255, 255, 255},
	"black":  {0, 0, 0, 255},
	"red":    {230, 40, 40, 255},
	"yellow": {250, 220, 40, 255},
	"blue":   {40, 90, 230, 255},
	"green":  {40, 180, 70, 255},
}

// parseColor understands #rgb, #rrggbb and a few names. Anything else is white.
func parseColor(raw string) color.RGBA {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if c, ok := named[raw]; ok {
		return c
	}
	hex, ok := strings.CutPrefix(raw, "#")
	if !ok {
		return named["white"]
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return named["white"]
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return named["white"]
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
