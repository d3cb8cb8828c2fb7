package token

import "fmt"

// Value is a single scanned token: its kind, the literal text that
// produced it, its decoded numeric value when applicable, and its
// source position.
type Value struct {
	Kind Kind
	Raw  string // literal source text
	Data int64  // decoded value for INT and CHAR kinds
	Pos  Pos
	File string // source file path this token came from
}

func (v Value) String() string {
	if v.Raw != "" {
		return fmt.Sprintf("%s %q", v.Kind, v.Raw)
	}
	return v.Kind.String()
}

// PosMode controls how FormatPosition renders a token's position.
type PosMode int

const (
	PosNone PosMode = iota
	PosShort
	PosLong
)

// FormatPosition renders v's position according to mode, e.g.
// "file.fx:3:9" for PosLong, "3:9" for PosShort. A token with an
// unknown position renders as just its file (PosLong) or nothing, so a
// synthetic token never produces a bogus "0:0".
func FormatPosition(mode PosMode, v Value) string {
	switch mode {
	case PosShort:
		if v.Pos.Unknown() {
			return ""
		}
		line, col := v.Pos.LineCol()
		return fmt.Sprintf("%d:%d", line, col)
	case PosLong:
		if v.Pos.Unknown() {
			return v.File
		}
		line, col := v.Pos.LineCol()
		if v.File == "" {
			return fmt.Sprintf("%d:%d", line, col)
		}
		return fmt.Sprintf("%s:%d:%d", v.File, line, col)
	default:
		return ""
	}
}
