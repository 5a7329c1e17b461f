package game

import (
	"errors"
	"fmt"
)

var ErrInvalidLayout = errors.New("invalid layout")

// Grid is the static map the filters consume. Implementations must be immutable.
type Grid interface {
	IsLegal(p Position) bool
	// LegalPositions returns every non-wall cell in a fixed order.
	LegalPositions() []Position
	// LegalMoves returns the legal cells one step away from p, excluding p itself.
	LegalMoves(p Position) []Position
	// LegalActions returns the directions (Stop included) that keep p on a legal cell.
	LegalActions(p Position) []Direction
}

// Layout represents the game map: its walls and the adjacency between legal cells.
type Layout struct {
	width     int
	height    int
	walls     [][]bool // Indexed [x][y]
	positions []Position
	adjacent  map[Position][]Position
}

// ParseLayout converts rows of text into a layout. Row 0 is the top of the map.
// '%' and 'W' are walls, every other character is an open cell.
func ParseLayout(rows []string) (*Layout, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidLayout)
	}
	width := len(rows[0])
	height := len(rows)

	walls := make([][]bool, width)
	for x := range walls {
		walls[x] = make([]bool, height)
	}
	for row, line := range rows {
		if len(line) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, expected %d", ErrInvalidLayout, row, len(line), width)
		}
		y := height - row - 1
		for x, cell := range line {
			walls[x][y] = cell == '%' || cell == 'W'
		}
	}

	l := &Layout{
		width:    width,
		height:   height,
		walls:    walls,
		adjacent: make(map[Position][]Position),
	}
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if !walls[x][y] {
				l.positions = append(l.positions, Position{X: x, Y: y})
			}
		}
	}
	if len(l.positions) == 0 {
		return nil, fmt.Errorf("%w: no legal positions", ErrInvalidLayout)
	}

	// Adjacency is symmetric, so each border is recorded from both ends
	for _, p := range l.positions {
		for _, d := range Directions {
			if q := p.Add(d); l.IsLegal(q) {
				l.adjacent[p] = append(l.adjacent[p], q)
			}
		}
	}
	return l, nil
}

// OpenLayout creates a width x height layout without walls.
func OpenLayout(width, height int) *Layout {
	rows := make([]string, height)
	for i := range rows {
		line := make([]byte, width)
		for j := range line {
			line[j] = '.'
		}
		rows[i] = string(line)
	}
	l, err := ParseLayout(rows)
	if err != nil {
		panic(fmt.Sprintf("cannot build open layout %dx%d: %v", width, height, err))
	}
	return l
}

func (l *Layout) Width() int  { return l.width }
func (l *Layout) Height() int { return l.height }

func (l *Layout) IsLegal(p Position) bool {
	if p.X < 0 || p.Y < 0 || p.X >= l.width || p.Y >= l.height {
		return false
	}
	return !l.walls[p.X][p.Y]
}

func (l *Layout) IsWall(p Position) bool {
	return !l.IsLegal(p)
}

func (l *Layout) LegalPositions() []Position {
	positions := make([]Position, len(l.positions))
	copy(positions, l.positions)
	return positions
}

func (l *Layout) LegalMoves(p Position) []Position {
	moves := make([]Position, len(l.adjacent[p]))
	copy(moves, l.adjacent[p])
	return moves
}

func (l *Layout) LegalActions(p Position) []Direction {
	if !l.IsLegal(p) {
		return nil
	}
	actions := []Direction{Stop}
	for _, d := range Directions {
		if l.IsLegal(p.Add(d)) {
			actions = append(actions, d)
		}
	}
	return actions
}

// String renders the layout top row first, the way it was parsed.
func (l *Layout) String() string {
	buf := make([]byte, 0, (l.width+1)*l.height)
	for y := l.height - 1; y >= 0; y-- {
		for x := 0; x < l.width; x++ {
			if l.walls[x][y] {
				buf = append(buf, '%')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
