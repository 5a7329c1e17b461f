package game

import (
	"fmt"
	"sort"
)

// GLOBAL DATA. Small hunting grounds in the usual pacman text format, '%' marks a wall.
var Layouts = map[string][]string{
	"open": {
		"...",
		"...",
		"...",
	},
	"oneHunt": {
		"%%%%%%%%%%",
		"%........%",
		"%.%%..%%.%",
		"%........%",
		"%%%%%%%%%%",
	},
	"smallHunt": {
		"%%%%%%%%%%%%%%%%%%%%",
		"%..................%",
		"%.%%.%%%%..%%%%.%%.%",
		"%.%...........%..%.%",
		"%.%.%%%.%%%.%%%.%%.%",
		"%..................%",
		"%%%%%%%%%%%%%%%%%%%%",
	},
	"openHunt": {
		"%%%%%%%%%%%%%%%",
		"%.............%",
		"%.............%",
		"%.............%",
		"%.............%",
		"%.............%",
		"%%%%%%%%%%%%%%%",
	},
}

// LoadLayout parses one of the named built-in layouts.
func LoadLayout(name string) (*Layout, error) {
	rows, ok := Layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown layout %q", ErrInvalidLayout, name)
	}
	return ParseLayout(rows)
}

// LayoutNames returns the built-in layout names, sorted.
func LayoutNames() []string {
	names := make([]string, 0, len(Layouts))
	for name := range Layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
