package config

import "sort"

var Presets = map[string]func() *Config{
	// reference reproduces the default scene: 1000 particles under strong
	// gravity.
	"reference": DefaultConfig,
	"gentle": func() *Config {
		c := DefaultConfig()
		c.Physics.Gravity = [3]float64{0, -900, 0}
		c.Physics.DampingFactor = 0.9
		c.Physics.Restitution = 0.95
		return c
	},
	"zero_g": func() *Config {
		c := DefaultConfig()
		c.Physics.Gravity = [3]float64{}
		c.Frames = 1200
		return c
	},
	"dense": func() *Config {
		c := DefaultConfig()
		c.Particles = 2000
		c.Layout = "lattice"
		c.Workers = 4
		return c
	},
	"small": func() *Config {
		c := DefaultConfig()
		c.Particles = 100
		c.Frames = 200
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
