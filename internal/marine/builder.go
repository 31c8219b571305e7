package marine

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LineReader supplies one line of user input at a time.
type LineReader interface {
	ReadLine() (string, error)
}

// Builder constructs records field by field from a line source.
//
// In interactive mode an invalid value is reported and asked again. In script
// mode the first invalid value fails the whole build with ErrIncorrectScriptInput.
type Builder struct {
	in     LineReader
	out    io.Writer
	script bool
	prompt string
}

// NewBuilder creates a builder reading from in and prompting on out.
func NewBuilder(in LineReader, out io.Writer, script bool) *Builder {
	return &Builder{in: in, out: out, script: script, prompt: "> "}
}

// Marine asks for every user-supplied field of a SpaceMarine.
func (b *Builder) Marine() (*SpaceMarine, error) {
	m := &SpaceMarine{}

	steps := []struct {
		label string
		parse func(string) error
	}{
		{"name", func(s string) error {
			if s == "" {
				return fmt.Errorf("name must not be empty")
			}
			m.Name = s
			return nil
		}},
		{fmt.Sprintf("coordinate x (> %d)", MinCoordinateX), func(s string) error {
			x, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("x must be an integer")
			}
			if x <= MinCoordinateX {
				return fmt.Errorf("x must be greater than %d", MinCoordinateX)
			}
			m.Coordinates.X = x
			return nil
		}},
		{"coordinate y", func(s string) error {
			y, err := strconv.ParseFloat(s, 64)
			if err != nil || !IsFinite(y) {
				return fmt.Errorf("y must be a finite number")
			}
			m.Coordinates.Y = y
			return nil
		}},
		{"health (> 0)", func(s string) error {
			h, err := strconv.Atoi(s)
			if err != nil || h <= 0 {
				return fmt.Errorf("health must be a positive integer")
			}
			m.Health = h
			return nil
		}},
		{fmt.Sprintf("heart count (1-%d)", MaxHeartCount), func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > MaxHeartCount {
				return fmt.Errorf("heart count must be between 1 and %d", MaxHeartCount)
			}
			m.HeartCount = n
			return nil
		}},
		{"height", func(s string) error {
			h, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("height must be an integer")
			}
			m.Height = h
			return nil
		}},
		{"melee weapon " + weaponList(), func(s string) error {
			w, err := ParseWeapon(s)
			if err != nil {
				return err
			}
			m.MeleeWeapon = w
			return nil
		}},
	}

	for _, step := range steps {
		if err := b.ask(step.label, step.parse); err != nil {
			return nil, err
		}
	}

	c, err := b.Chapter()
	if err != nil {
		return nil, err
	}
	m.Chapter = *c
	return m, nil
}

// Chapter asks for the chapter name and world.
func (b *Builder) Chapter() (*Chapter, error) {
	c := &Chapter{}
	if err := b.ask("chapter name", func(s string) error {
		if s == "" {
			return fmt.Errorf("chapter name must not be empty")
		}
		c.Name = s
		return nil
	}); err != nil {
		return nil, err
	}
	if err := b.ask("chapter world (may be empty)", func(s string) error {
		c.World = s
		return nil
	}); err != nil {
		return nil, err
	}
	return c, nil
}

func (b *Builder) ask(label string, parse func(string) error) error {
	for {
		if !b.script {
			fmt.Fprintf(b.out, "enter %s:\n%s", label, b.prompt)
		}
		line, err := b.in.ReadLine()
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if b.script {
			fmt.Fprintf(b.out, "%s%s\n", b.prompt, line)
		}

		perr := parse(line)
		if perr == nil {
			return nil
		}
		if b.script {
			return fmt.Errorf("%w: %v", ErrIncorrectScriptInput, perr)
		}
		fmt.Fprintf(b.out, "%v\n", perr)
	}
}

func weaponList() string {
	names := make([]string, len(Weapons))
	for i, w := range Weapons {
		names[i] = string(w)
	}
	return "(" + strings.Join(names, ", ") + ")"
}
