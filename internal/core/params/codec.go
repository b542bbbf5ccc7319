// Package params decodes and encodes the packed parameter string carried by
// danmaku comments.
//
// The packed layout is 8 comma separated fields:
//
//	time,mode,font_size,color,send_timestamp,pool,danmaku_id,user_hash
//
// Fields 1-6 are numeric, fields 7-8 pass through verbatim. Trailing fields
// beyond the 8th are tolerated and ignored; fewer than 8 fields is a decode
// failure. The package is pure: no I/O, no logging.
package params

import (
	"fmt"
	"strconv"
	"strings"

	errs "github.com/mizone/danmaku-insight/internal/core/errors"
)

// Mode identifies how a danmaku comment is rendered on screen.
type Mode int32

// Rendering modes used by the provider. Unknown codes decode fine and keep
// their raw value.
const (
	ModeScroll     Mode = 1 // right-to-left scrolling
	ModeBottom     Mode = 4
	ModeTop        Mode = 5
	ModeReverse    Mode = 6
	ModePositioned Mode = 7
	ModeAdvanced   Mode = 8
)

// Font sizes commonly found in packed strings.
const (
	FontSizeSmall    int32 = 12
	FontSizeStandard int32 = 18
	FontSizeLarge    int32 = 25
)

// Pool designations from the provider.
const (
	PoolNormal   int32 = 0
	PoolSubtitle int32 = 1
	PoolSpecial  int32 = 2
)

const (
	packedFieldCount = 8
	maxColor         = 0xFFFFFF
)

// Params is the decoded form of a packed parameter string.
type Params struct {
	Time      float64 `json:"time"`
	Mode      Mode    `json:"mode"`
	FontSize  int32   `json:"font_size"`
	Color     uint32  `json:"color"`
	SentAt    int64   `json:"timestamp"`
	Pool      int32   `json:"pool"`
	DanmakuID string  `json:"danmaku_id"`
	UserHash  string  `json:"user_hash"`
}

// Decode parses a packed parameter string. Malformed input returns an error
// wrapping errs.ErrMalformedParams naming the offending field; Decode never
// panics. Only the first 8 fields are consumed, so provider strings with
// trailing extras still decode. An empty 8th field yields an empty UserHash.
func Decode(s string) (Params, error) {
	parts := strings.Split(s, ",")
	if len(parts) < packedFieldCount {
		return Params{}, fmt.Errorf("%w: %d of %d fields", errs.ErrMalformedParams, len(parts), packedFieldCount)
	}

	t, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Params{}, fmt.Errorf("%w: time %q", errs.ErrMalformedParams, parts[0])
	}

	mode, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return Params{}, fmt.Errorf("%w: mode %q", errs.ErrMalformedParams, parts[1])
	}

	fontSize, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return Params{}, fmt.Errorf("%w: font size %q", errs.ErrMalformedParams, parts[2])
	}

	color, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Params{}, fmt.Errorf("%w: color %q", errs.ErrMalformedParams, parts[3])
	}

	// Reject out-of-range colors instead of truncating to 24 bits.
	if color < 0 || color > maxColor {
		return Params{}, fmt.Errorf("%w: color %d outside 24-bit range", errs.ErrMalformedParams, color)
	}

	sentAt, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return Params{}, fmt.Errorf("%w: send timestamp %q", errs.ErrMalformedParams, parts[4])
	}

	pool, err := strconv.ParseInt(parts[5], 10, 32)
	if err != nil {
		return Params{}, fmt.Errorf("%w: pool %q", errs.ErrMalformedParams, parts[5])
	}

	return Params{
		Time:      t,
		Mode:      Mode(mode),
		FontSize:  int32(fontSize),
		Color:     uint32(color),
		SentAt:    sentAt,
		Pool:      int32(pool),
		DanmakuID: parts[6],
		UserHash:  parts[7],
	}, nil
}

// Encode renders p back into the packed layout. The time offset is printed in
// the shortest form that parses back to the same value, so
// Decode(Encode(p)) == p for every p whose string fields contain no comma.
func Encode(p Params) string {
	return strings.Join([]string{
		strconv.FormatFloat(p.Time, 'f', -1, 64),
		strconv.FormatInt(int64(p.Mode), 10),
		strconv.FormatInt(int64(p.FontSize), 10),
		strconv.FormatUint(uint64(p.Color), 10),
		strconv.FormatInt(p.SentAt, 10),
		strconv.FormatInt(int64(p.Pool), 10),
		p.DanmakuID,
		p.UserHash,
	}, ",")
}
