// Package marine defines the space marine record stored by the server.
package marine

import (
	"cmp"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// MinCoordinateX is the exclusive lower bound for Coordinates.X.
	MinCoordinateX = -147
	// MaxHeartCount is the inclusive upper bound for HeartCount.
	MaxHeartCount = 3
)

// MeleeWeapon is the close-combat weapon a marine carries.
type MeleeWeapon string

const (
	ChainSword MeleeWeapon = "CHAIN_SWORD"
	PowerSword MeleeWeapon = "POWER_SWORD"
	ChainAxe   MeleeWeapon = "CHAIN_AXE"
	Manreaper  MeleeWeapon = "MANREAPER"
	PowerFist  MeleeWeapon = "POWER_FIST"
)

// Weapons lists every valid MeleeWeapon in display order.
var Weapons = []MeleeWeapon{ChainSword, PowerSword, ChainAxe, Manreaper, PowerFist}

// ParseWeapon parses a weapon name, case-insensitively.
func ParseWeapon(s string) (MeleeWeapon, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, w := range Weapons {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown melee weapon %q", s)
}

// Coordinates is a marine's position.
type Coordinates struct {
	X int64   `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Chapter is the chapter a marine belongs to.
type Chapter struct {
	Name  string `json:"name" yaml:"name"`
	World string `json:"world,omitempty" yaml:"world,omitempty"`
}

func (c Chapter) String() string {
	if c.World == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.World)
}

// SpaceMarine is a single record of the collection.
type SpaceMarine struct {
	ID           int64       `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Coordinates  Coordinates `json:"coordinates" yaml:"coordinates"`
	CreationDate time.Time   `json:"creation_date" yaml:"creation_date"`
	Health       int         `json:"health" yaml:"health"`
	HeartCount   int         `json:"heart_count" yaml:"heart_count"`
	Height       int         `json:"height" yaml:"height"`
	MeleeWeapon  MeleeWeapon `json:"melee_weapon" yaml:"melee_weapon"`
	Chapter      Chapter     `json:"chapter" yaml:"chapter"`
}

// Validate checks every field except ID and CreationDate, which the server assigns.
func (m *SpaceMarine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if m.Coordinates.X <= MinCoordinateX {
		return &ValidationError{Field: "coordinates.x", Reason: fmt.Sprintf("must be greater than %d", MinCoordinateX)}
	}
	if !IsFinite(m.Coordinates.Y) {
		return &ValidationError{Field: "coordinates.y", Reason: "must be a finite number"}
	}
	if m.Health <= 0 {
		return &ValidationError{Field: "health", Reason: "must be greater than 0"}
	}
	if m.HeartCount < 1 || m.HeartCount > MaxHeartCount {
		return &ValidationError{Field: "heart_count", Reason: fmt.Sprintf("must be between 1 and %d", MaxHeartCount)}
	}
	if _, err := ParseWeapon(string(m.MeleeWeapon)); err != nil {
		return &ValidationError{Field: "melee_weapon", Reason: err.Error()}
	}
	return m.Chapter.Validate()
}

// Validate checks the chapter fields.
func (c *Chapter) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "chapter.name", Reason: "must not be empty"}
	}
	return nil
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Compare orders marines by health, then height, then name.
// It returns a negative number when a < b, zero when equal, positive when a > b.
func Compare(a, b *SpaceMarine) int {
	switch {
	case a.Health != b.Health:
		return cmp.Compare(a.Health, b.Health)
	case a.Height != b.Height:
		return cmp.Compare(a.Height, b.Height)
	default:
		return strings.Compare(a.Name, b.Name)
	}
}

func (m *SpaceMarine) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", m.ID)
	fmt.Fprintf(&b, "name: %s\n", m.Name)
	fmt.Fprintf(&b, "coordinates: (%d, %g)\n", m.Coordinates.X, m.Coordinates.Y)
	fmt.Fprintf(&b, "created: %s\n", m.CreationDate.Format(time.DateTime))
	fmt.Fprintf(&b, "health: %d\n", m.Health)
	fmt.Fprintf(&b, "heart count: %d\n", m.HeartCount)
	fmt.Fprintf(&b, "height: %d\n", m.Height)
	fmt.Fprintf(&b, "melee weapon: %s\n", m.MeleeWeapon)
	fmt.Fprintf(&b, "chapter: %s", m.Chapter)
	return b.String()
}
