// Package danmaku converts DanDanPlay comments between player wire formats.
// All conversions are pure and safe for concurrent use.
package danmaku

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/imi6/dandan/internal/apperr"
)

// RawComment is the DanDanPlay source encoding. Position packs
// "time,mode,color" into a single comma-delimited string.
type RawComment struct {
	CID      int64  `json:"cid"`
	Position string `json:"p"`
	Text     string `json:"m"`
}

// NPlayerComment is the scrolling overlay schema used by NPlayer.
type NPlayerComment struct {
	Color string  `json:"color"`
	Text  string  `json:"text"`
	Time  float64 `json:"time"`
	Type  string  `json:"type"`
}

// ArtPlayerComment collapses both static anchors into mode 1.
type ArtPlayerComment struct {
	Text  string  `json:"text"`
	Time  float64 `json:"time"`
	Color string  `json:"color"`
	Mode  int     `json:"mode"`
}

// CCLComment is the Comment Core Library schema, millisecond based.
type CCLComment struct {
	Text  string `json:"text"`
	STime int64  `json:"stime"`
	Color int64  `json:"color"`
	Mode  int64  `json:"mode"`
	Size  int    `json:"size"`
}

// Format names a conversion target.
type Format string

const (
	FormatRaw       Format = "raw"
	FormatNPlayer   Format = "nplayer"
	FormatArtPlayer Format = "artplayer"
	FormatCCL       Format = "ccl"
)

const cclFontSize = 25

var nplayerModes = map[string]string{
	"1": "scroll",
	"4": "bottom",
	"5": "top",
}

var artplayerModes = map[string]int{
	"1": 0,
	"4": 1,
	"5": 1,
}

type position struct {
	time  float64
	mode  string
	color int64
}

// parsePosition splits the packed triple. A comment is well formed iff the
// position has at least three fields and they parse as float, integer,
// integer respectively. Fields may carry surrounding whitespace; some
// exporters write "time, mode, color".
func parsePosition(c RawComment) (position, error) {
	parts := strings.Split(c.Position, ",")
	if len(parts) < 3 {
		return position{}, apperr.Formatf("position %q has %d fields, want at least 3", c.Position, len(parts))
	}
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}

	t, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return position{}, apperr.Formatf("bad time %q: %v", parts[0], err)
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return position{}, apperr.Formatf("bad mode %q: %v", parts[1], err)
	}
	color, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return position{}, apperr.Formatf("bad color %q: %v", parts[2], err)
	}

	return position{time: t, mode: parts[1], color: color}, nil
}

func hexColor(color int64) string {
	return fmt.Sprintf("#%06x", color)
}

// ToNPlayer converts a raw comment to the NPlayer schema. Unknown mode
// codes fall back to scroll, matching the upstream player behaviour.
func ToNPlayer(c RawComment) (NPlayerComment, error) {
	if c.Text == "" {
		return NPlayerComment{}, apperr.Formatf("comment %d has no text", c.CID)
	}
	pos, err := parsePosition(c)
	if err != nil {
		return NPlayerComment{}, err
	}

	mode, ok := nplayerModes[pos.mode]
	if !ok {
		mode = "scroll"
	}

	return NPlayerComment{
		Color: hexColor(pos.color),
		Text:  c.Text,
		Time:  pos.time,
		Type:  mode,
	}, nil
}

// ToArtPlayer converts a raw comment to the ArtPlayer schema, where 0 is
// scrolling and 1 is static (top and bottom are not distinguished).
func ToArtPlayer(c RawComment) (ArtPlayerComment, error) {
	if c.Text == "" {
		return ArtPlayerComment{}, apperr.Formatf("comment %d has no text", c.CID)
	}
	pos, err := parsePosition(c)
	if err != nil {
		return ArtPlayerComment{}, err
	}

	return ArtPlayerComment{
		Text:  c.Text,
		Time:  pos.time,
		Color: hexColor(pos.color),
		Mode:  artplayerModes[pos.mode],
	}, nil
}

// ToCCL converts a raw comment to the CCL schema. The mode code is kept as
// the raw integer and the start time becomes milliseconds.
func ToCCL(c RawComment) (CCLComment, error) {
	if c.Text == "" {
		return CCLComment{}, apperr.Formatf("comment %d has no text", c.CID)
	}
	pos, err := parsePosition(c)
	if err != nil {
		return CCLComment{}, err
	}
	mode, _ := strconv.ParseInt(pos.mode, 10, 64)

	return CCLComment{
		Text:  c.Text,
		STime: int64(math.Round(pos.time * 1000)),
		Color: pos.color,
		Mode:  mode,
		Size:  cclFontSize,
	}, nil
}

// ConvertBatch applies the target conversion to every comment. Individually
// malformed comments are dropped, never fatal; the returned count is how
// many were skipped. Only an unknown target format fails the whole call.
func ConvertBatch(comments []RawComment, target Format) ([]any, int, error) {
	var convert func(RawComment) (any, error)
	switch target {
	case FormatNPlayer:
		convert = func(c RawComment) (any, error) { return ToNPlayer(c) }
	case FormatArtPlayer:
		convert = func(c RawComment) (any, error) { return ToArtPlayer(c) }
	case FormatCCL:
		convert = func(c RawComment) (any, error) { return ToCCL(c) }
	default:
		return nil, 0, apperr.Formatf("unsupported format: %s", target)
	}

	converted := make([]any, 0, len(comments))
	dropped := 0
	for _, c := range comments {
		out, err := convert(c)
		if err != nil {
			dropped++
			continue
		}
		converted = append(converted, out)
	}
	return converted, dropped, nil
}
