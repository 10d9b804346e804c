package geometry

import (
	"fmt"
	"strings"
)

// Direction names the screen edge an action moves toward.
type Direction int

const (
	Up Direction = iota + 1
	Left
	Right
	Down
)

// Directions lists every valid direction.
var Directions = []Direction{Up, Left, Right, Down}

// ParseDirection parses a direction name, ignoring case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (expected up, left, right or down)", s)
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Left:
		return "left"
	case Right:
		return "right"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= Up && d <= Down
}

// Vertical reports whether d moves along the y axis.
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
