// Package config loads the fluid-system and module selection from a YAML
// run description and turns it into the live objects the assembly engine
// needs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/notargets/FVKernel/fluid"
	"github.com/notargets/FVKernel/modules"
	"github.com/notargets/FVKernel/residual"
)

// PhaseConfig selects one phase. Enabled allocates the conservation
// equation; Active additionally lets the phase flow.
type PhaseConfig struct {
	Enabled bool `yaml:"enabled"`
	Active  bool `yaml:"active"`
}

// DensityConfig holds the surface densities of one PVT region in kg/m^3.
type DensityConfig struct {
	Water float64 `yaml:"water"`
	Oil   float64 `yaml:"oil"`
	Gas   float64 `yaml:"gas"`
}

// ModuleConfig toggles the auxiliary conservation modules.
type ModuleConfig struct {
	Solvent   bool `yaml:"solvent"`
	Extbo     bool `yaml:"extbo"`
	Polymer   bool `yaml:"polymer"`
	Energy    bool `yaml:"energy"`
	Foam      bool `yaml:"foam"`
	Brine     bool `yaml:"brine"`
	Diffusion bool `yaml:"diffusion"`
	MICP      bool `yaml:"micp"`

	// FoamCarrier is the phase the foam surfactant travels with, "gas"
	// (default) or "water".
	FoamCarrier string `yaml:"foam_carrier"`

	// EnergyScalingFactor rescales the energy source terms; 0 means 1.
	EnergyScalingFactor float64 `yaml:"energy_scaling_factor"`
}

// Any reports whether at least one auxiliary module is selected.
func (m ModuleConfig) Any() bool {
	return m.Solvent || m.Extbo || m.Polymer || m.Energy ||
		m.Foam || m.Brine || m.Diffusion || m.MICP
}

// Config is the YAML run description.
type Config struct {
	Phases struct {
		Water PhaseConfig `yaml:"water"`
		Oil   PhaseConfig `yaml:"oil"`
		Gas   PhaseConfig `yaml:"gas"`
	} `yaml:"phases"`

	DissolvedGas          bool `yaml:"dissolved_gas"`
	VaporizedOil          bool `yaml:"vaporized_oil"`
	VaporizedWater        bool `yaml:"vaporized_water"`
	ConserveSurfaceVolume bool `yaml:"conserve_surface_volume"`

	ReferenceDensities []DensityConfig `yaml:"reference_densities"`

	Modules ModuleConfig `yaml:"modules"`
}

// Default returns a conventional live-oil three-phase setup with a single
// PVT region, conserving surface volumes.
func Default() Config {
	var c Config
	for _, p := range []*PhaseConfig{&c.Phases.Water, &c.Phases.Oil, &c.Phases.Gas} {
		p.Enabled = true
		p.Active = true
	}
	c.DissolvedGas = true
	c.VaporizedOil = true
	c.ConserveSurfaceVolume = true
	c.ReferenceDensities = []DensityConfig{{Water: 1000, Oil: 850, Gas: 1}}
	return c
}

// Load reads a YAML run description. Unknown keys are rejected so typos
// surface as errors instead of silently disabling features.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// FluidConfig translates the YAML description into the fluid-system config.
func (c Config) FluidConfig() fluid.Config {
	densities := make([][fluid.NumComponents]float64, len(c.ReferenceDensities))
	for i, d := range c.ReferenceDensities {
		densities[i] = [fluid.NumComponents]float64{d.Water, d.Oil, d.Gas}
	}
	return fluid.Config{
		EnabledPhases: [fluid.NumPhases]bool{
			c.Phases.Water.Enabled, c.Phases.Oil.Enabled, c.Phases.Gas.Enabled,
		},
		ActivePhases: [fluid.NumPhases]bool{
			c.Phases.Water.Active, c.Phases.Oil.Active, c.Phases.Gas.Active,
		},
		DissolvedGas:          c.DissolvedGas,
		VaporizedOil:          c.VaporizedOil,
		VaporizedWater:        c.VaporizedWater,
		ConserveSurfaceVolume: c.ConserveSurfaceVolume,
		ReferenceDensities:    densities,
	}
}

// BuildSystem validates the description and constructs the fluid system.
func (c Config) BuildSystem() (*fluid.System, error) {
	return fluid.NewSystem(c.FluidConfig())
}

// ErrUnknownFoamCarrier is returned for a foam_carrier value other than
// "gas" or "water".
var ErrUnknownFoamCarrier = errors.New("config: unknown foam carrier")

func (c Config) foamCarrier() (fluid.Phase, error) {
	switch strings.ToLower(c.Modules.FoamCarrier) {
	case "", "gas":
		return fluid.Gas, nil
	case "water":
		return fluid.Water, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownFoamCarrier, c.Modules.FoamCarrier)
	}
}

// BuildModules constructs the selected auxiliary modules in their canonical
// registration order, so equation slot layout is stable across runs.
func (c Config) BuildModules(sys *fluid.System) ([]residual.Module, error) {
	var out []residual.Module
	add := func(m residual.Module, err error) error {
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	}

	if c.Modules.Solvent {
		if err := add(modules.NewSolvent(sys)); err != nil {
			return nil, err
		}
	}
	if c.Modules.Extbo {
		if err := add(modules.NewExtbo(sys)); err != nil {
			return nil, err
		}
	}
	if c.Modules.Polymer {
		if err := add(modules.NewPolymer(sys)); err != nil {
			return nil, err
		}
	}
	if c.Modules.Energy {
		if err := add(modules.NewEnergy(sys, c.Modules.EnergyScalingFactor)); err != nil {
			return nil, err
		}
	}
	if c.Modules.Foam {
		carrier, err := c.foamCarrier()
		if err != nil {
			return nil, err
		}
		if err := add(modules.NewFoam(sys, carrier)); err != nil {
			return nil, err
		}
	}
	if c.Modules.Brine {
		if err := add(modules.NewBrine(sys)); err != nil {
			return nil, err
		}
	}
	if c.Modules.Diffusion {
		if err := add(modules.NewDiffusion(sys)); err != nil {
			return nil, err
		}
	}
	if c.Modules.MICP {
		if err := add(modules.NewMICP(sys, modules.DefaultMICPParams())); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BuildResidual is the one-call path from a run description to a ready
// local residual.
func (c Config) BuildResidual() (*residual.LocalResidual, error) {
	sys, err := c.BuildSystem()
	if err != nil {
		return nil, err
	}
	mods, err := c.BuildModules(sys)
	if err != nil {
		return nil, err
	}
	return residual.NewLocalResidual(sys, mods...)
}
