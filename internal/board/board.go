// Package board holds the static geometry of the Royal Game of Ur: the per-color paths,
// the rosette squares and the shared war zone.
package board

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/royal-ur/internal/entity"
)

const (
	Rows = 3
	Cols = 8

	// WarZoneStart and WarZoneEnd bound the path indices both colors share.
	WarZoneStart = entity.WarZoneStart
	WarZoneEnd   = entity.WarZoneEnd
)

var ErrInvalidTopology = errors.New("invalid board topology")

type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Coord) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

type Path [entity.PathLength]Coord

var (
	lightPath = Path{
		{2, 3}, {2, 2}, {2, 1}, {2, 0},
		{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 5}, {1, 6}, {1, 7},
		{2, 7}, {2, 6},
	}

	darkPath = Path{
		{0, 3}, {0, 2}, {0, 1}, {0, 0},
		{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}, {1, 5}, {1, 6}, {1, 7},
		{0, 7}, {0, 6},
	}

	rosettes = map[Coord]struct{}{
		{0, 0}: {},
		{2, 0}: {},
		{1, 3}: {},
		{0, 6}: {},
		{2, 6}: {},
	}

	warZone = map[Coord]struct{}{}
)

func init() {
	if err := Verify(); err != nil {
		panic(err)
	}

	for _, coord := range lightPath {
		if onPath(darkPath, coord) {
			warZone[coord] = struct{}{}
		}
	}
}

// PathFor returns the ordered squares a piece of the color walks through.
func PathFor(color entity.Color) Path {
	if color == entity.Dark {
		return darkPath
	}
	return lightPath
}

// CoordAt maps a path index to a board coordinate. Reserve and finish have no coordinate.
func CoordAt(color entity.Color, index int) (Coord, bool) {
	if index < 0 || index >= entity.PathLength {
		return Coord{}, false
	}

	return PathFor(color)[index], true
}

func IsRosette(row, col int) bool {
	_, ok := rosettes[Coord{row, col}]
	return ok
}

// IsRosetteIndex reports whether the path index is a rosette. Both paths place rosettes on the same indices.
func IsRosetteIndex(index int) bool {
	coord, ok := CoordAt(entity.Light, index)
	if !ok {
		return false
	}

	return IsRosette(coord.Row, coord.Col)
}

func IsWarZone(row, col int) bool {
	_, ok := warZone[Coord{row, col}]
	return ok
}

// IsWarZoneIndex reports whether the path index lies in the shared lane.
func IsWarZoneIndex(index int) bool {
	return index >= WarZoneStart && index <= WarZoneEnd
}

func IsGap(row, col int) bool {
	return (row == 0 || row == 2) && (col == 4 || col == 5)
}

// Verify checks the path tables: on-grid, gap-free, no repeated squares,
// and the two paths overlap on exactly the war-zone indices.
func Verify() error {
	for _, color := range []entity.Color{entity.Light, entity.Dark} {
		path := PathFor(color)
		seen := make(map[Coord]struct{}, len(path))

		for i, coord := range path {
			if coord.Row < 0 || coord.Row >= Rows || coord.Col < 0 || coord.Col >= Cols {
				return fmt.Errorf("%w: %s index %d off grid at %s", ErrInvalidTopology, color, i, coord)
			}
			if IsGap(coord.Row, coord.Col) {
				return fmt.Errorf("%w: %s index %d on gap %s", ErrInvalidTopology, color, i, coord)
			}
			if _, ok := seen[coord]; ok {
				return fmt.Errorf("%w: %s visits %s twice", ErrInvalidTopology, color, coord)
			}
			seen[coord] = struct{}{}
		}
	}

	for i := range lightPath {
		shared := lightPath[i] == darkPath[i]
		if shared != IsWarZoneIndex(i) {
			return fmt.Errorf("%w: index %d shared=%t", ErrInvalidTopology, i, shared)
		}
		if !IsWarZoneIndex(i) && onPath(darkPath, lightPath[i]) {
			return fmt.Errorf("%w: private square %s reachable by both colors", ErrInvalidTopology, lightPath[i])
		}
	}

	for coord := range rosettes {
		if !onPath(lightPath, coord) && !onPath(darkPath, coord) {
			return fmt.Errorf("%w: rosette %s is on no path", ErrInvalidTopology, coord)
		}
	}

	for i := range lightPath {
		if IsRosette(lightPath[i].Row, lightPath[i].Col) != IsRosette(darkPath[i].Row, darkPath[i].Col) {
			return fmt.Errorf("%w: rosette index %d differs between colors", ErrInvalidTopology, i)
		}
	}

	return nil
}

func onPath(path Path, coord Coord) bool {
	for _, c := range path {
		if c == coord {
			return true
		}
	}
	return false
}
