package volume

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/df07/go-raymarcher/pkg/core"
)

// ErrUnknownScene is returned by Builtin for a name that is not registered
var ErrUnknownScene = errors.New("unknown scene")

var builtins = map[string]func() *Scene{
	"cloud": NewCloudScene,
	"fire":  NewFireScene,
	"fog":   NewFogScene,
}

// Names lists the built-in scenes in alphabetical order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtin creates the named built-in scene
func Builtin(name string) (*Scene, error) {
	create, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return create(), nil
}

// NewCloudScene creates a cumulus of overlapping soft spheres lit by a blue sky
func NewCloudScene() *Scene {
	s := NewScene("cloud")
	s.Ambient = core.NewVec3(0.9, 0.95, 1.1)
	s.Background = core.NewVec3(0.35, 0.55, 0.85)
	s.View = View{
		From: core.NewVec3(0, 0.2, 3),
		At:   core.NewVec3(0, 0, -3),
		Up:   core.NewVec3(0, 1, 0),
		VFov: 40,
	}

	cloud := Medium{
		Extinction: core.Splat(3),
		Albedo:     core.Splat(0.95),
	}
	puffs := []struct {
		center core.Vec3
		radius float64
	}{
		{core.NewVec3(0, 0, -3), 1.2},
		{core.NewVec3(-1.1, -0.2, -3.2), 0.9},
		{core.NewVec3(1.0, -0.1, -2.8), 0.8},
		{core.NewVec3(0.3, 0.7, -3.3), 0.7},
	}
	for i, p := range puffs {
		s.Add(Component{
			Name:   fmt.Sprintf("puff-%d", i),
			Shape:  NewSphere(p.center, p.radius, true),
			Medium: cloud,
		})
	}
	return s
}

// NewFireScene creates a hot emissive core under a column of smoke
func NewFireScene() *Scene {
	s := NewScene("fire")
	s.Ambient = core.Splat(0.05)
	s.Background = core.NewVec3(0.01, 0.01, 0.02)
	s.View = View{
		From: core.NewVec3(0, 0.5, 2.5),
		At:   core.NewVec3(0, 0.5, -2),
		Up:   core.NewVec3(0, 1, 0),
		VFov: 50,
	}

	s.Add(Component{
		Name:  "flame",
		Shape: NewSphere(core.NewVec3(0, 0, -2), 0.6, true),
		Medium: Medium{
			Extinction: core.NewVec3(0.6, 1.0, 2.0),
			Emission:   core.NewVec3(6, 2.2, 0.4),
		},
		// Emission varies quickly near the hot center
		StepLength: 0.01,
	})
	s.Add(Component{
		Name:  "smoke",
		Shape: NewBox(core.NewVec3(-0.7, 0.2, -2.7), core.NewVec3(0.7, 2.0, -1.3)),
		Medium: Medium{
			Extinction: core.Splat(0.8),
			Albedo:     core.Splat(0.3),
		},
	})
	return s
}

// NewFogScene creates ground fog with a denser bank resting in it
func NewFogScene() *Scene {
	s := NewScene("fog")
	s.Ambient = core.NewVec3(0.7, 0.72, 0.75)
	s.Background = core.NewVec3(0.5, 0.6, 0.7)
	s.View = View{
		From: core.NewVec3(0, 0.1, 0),
		At:   core.NewVec3(0, 0, -10),
		Up:   core.NewVec3(0, 1, 0),
		VFov: 60,
	}

	s.Add(Component{
		Name:  "ground-fog",
		Shape: NewSlab(-1, 0.6, true),
		Medium: Medium{
			Extinction: core.Splat(0.25),
			Albedo:     core.Splat(0.9),
		},
		StepLength: 0.2,
	})
	s.Add(Component{
		Name:  "fog-bank",
		Shape: NewBox(core.NewVec3(-3, -1, -9), core.NewVec3(2, 0.2, -6)),
		Medium: Medium{
			Extinction: core.Splat(0.9),
			Albedo:     core.Splat(0.9),
		},
	})
	return s
}
