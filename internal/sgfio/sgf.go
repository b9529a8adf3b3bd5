// Package sgfio emits and parses the SGF dialect this pipeline produces: a
// single game tree, board size 19, one B[xy]/W[xy] node per move.
//
// Coordinate convention: column char is 'a'+col; row char is 'a'+(18-row),
// so (0,0) is the top-left square as printed and SGF's 'a' row is the top.
// Parse is the exact inverse, so emit/parse round-trips.
package sgfio

import (
	"fmt"
	"strings"

	"github.com/kifurecon/boardscribe/internal/state"
)

// BoardSize is the fixed SGF SZ[] value this pipeline emits.
const BoardSize = state.Size

// Emit converts a move list into an SGF string.
func Emit(moves []state.Move) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("(;GM[1]SZ[%d]", BoardSize))

	for _, m := range moves {
		b.WriteString(";")
		b.WriteString(colourTag(m.Colour))
		b.WriteString("[")
		if !m.IsPass() {
			b.WriteByte('a' + byte(m.Col))
			b.WriteByte('a' + byte(BoardSize-1-m.Row))
		}
		b.WriteString("]")
	}

	b.WriteString(")")
	return b.String()
}

func colourTag(c state.Colour) string {
	if c == state.White {
		return "W"
	}
	return "B"
}

// Parse is the inverse of Emit: it accepts the same dialect (and is
// tolerant of the handful of header tags a real SGF file carries, so it
// can also read files written by other tools for testing).
func Parse(sgf string) ([]state.Move, error) {
	var moves []state.Move

	nodes := strings.Split(sgf, ";")
	for _, node := range nodes {
		node = strings.TrimSpace(node)
		node = strings.TrimPrefix(node, "(")
		node = strings.TrimSuffix(node, ")")
		if node == "" {
			continue
		}

		for _, tag := range []struct {
			prefix string
			colour state.Colour
		}{
			{"B[", state.Black},
			{"W[", state.White},
		} {
			// Only a bare B/W property is a move: skip matches that end a
			// longer property name such as PB[ or AW[.
			idx := -1
			for off := 0; off < len(node); {
				j := strings.Index(node[off:], tag.prefix)
				if j == -1 {
					break
				}
				j += off
				if j == 0 || node[j-1] < 'A' || node[j-1] > 'Z' {
					idx = j
					break
				}
				off = j + 1
			}
			if idx == -1 {
				continue
			}
			rest := node[idx+len(tag.prefix):]
			end := strings.Index(rest, "]")
			if end == -1 {
				return nil, fmt.Errorf("sgf: unterminated move value in node %q", node)
			}
			val := rest[:end]

			if val == "" {
				moves = append(moves, state.Pass(tag.colour))
				continue
			}
			if len(val) != 2 {
				return nil, fmt.Errorf("sgf: malformed move coordinate %q", val)
			}
			col := int(val[0] - 'a')
			row := BoardSize - 1 - int(val[1]-'a')
			if col < 0 || col >= BoardSize || row < 0 || row >= BoardSize {
				return nil, fmt.Errorf("sgf: coordinate out of range %q", val)
			}
			moves = append(moves, state.Move{Row: row, Col: col, Colour: tag.colour})
		}
	}

	return moves, nil
}
