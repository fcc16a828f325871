package gcode

import (
	"strconv"
	"strings"
)

// Move is one parsed G0/G1 line. The stateful filters parse the generated
// text back into moves, adjust axes or feedrate, and re-serialize; only
// fields present on the original line are written back.
type Move struct {
	X, Y, Z, E, F                float64
	HasX, HasY, HasZ, HasE, HasF bool
	Comment                      string
}

// IsTravel reports whether the move changes XY without extruding.
func (m *Move) IsTravel() bool { return (m.HasX || m.HasY) && !m.HasE }

// IsExtruding reports whether the move extrudes along XY.
func (m *Move) IsExtruding() bool { return (m.HasX || m.HasY) && m.HasE && m.E > 0 }

// ParseMove parses a G0/G1 line. It reports false for any other line.
func ParseMove(line string) (Move, bool) {
	var m Move
	rest := line
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		m.Comment = rest[i:]
		rest = strings.TrimRight(rest[:i], " \t")
	}
	if !strings.HasPrefix(rest, "G1 ") && !strings.HasPrefix(rest, "G0 ") {
		return Move{}, false
	}
	for _, word := range strings.Fields(rest[3:]) {
		if len(word) < 2 {
			return Move{}, false
		}
		v, err := strconv.ParseFloat(word[1:], 64)
		if err != nil {
			return Move{}, false
		}
		switch word[0] {
		case 'X':
			m.X, m.HasX = v, true
		case 'Y':
			m.Y, m.HasY = v, true
		case 'Z':
			m.Z, m.HasZ = v, true
		case 'E':
			m.E, m.HasE = v, true
		case 'F':
			m.F, m.HasF = v, true
		default:
			return Move{}, false
		}
	}
	return m, true
}

// String re-serializes the move.
func (m *Move) String() string {
	var b strings.Builder
	b.WriteString("G1")
	if m.HasX {
		b.WriteString(" X")
		b.WriteString(trimFloat(m.X, 3))
	}
	if m.HasY {
		b.WriteString(" Y")
		b.WriteString(trimFloat(m.Y, 3))
	}
	if m.HasZ {
		b.WriteString(" Z")
		b.WriteString(trimFloat(m.Z, 3))
	}
	if m.HasE {
		b.WriteString(" E")
		b.WriteString(trimFloat(m.E, 5))
	}
	if m.HasF {
		b.WriteString(" F")
		b.WriteString(trimFloat(m.F, 0))
	}
	if m.Comment != "" {
		b.WriteByte(' ')
		b.WriteString(m.Comment)
	}
	return b.String()
}

// splitLines splits instruction text into lines without their newlines. A
// trailing newline does not produce an empty final element.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
