// Package fluid defines the phase and component index space of the black-oil
// system and the runtime configuration that maps canonical component indices
// onto active conservation-equation slots.
package fluid

import (
	"errors"
	"fmt"
)

// Phase identifies one of the bulk fluids.
type Phase uint8

const (
	Water Phase = iota
	Oil
	Gas

	// NumPhases is the size of the canonical phase index space. Individual
	// phases may be disabled for a given run.
	NumPhases = 3
)

func (p Phase) String() string {
	switch p {
	case Water:
		return "water"
	case Oil:
		return "oil"
	case Gas:
		return "gas"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Component identifies one conserved chemical pseudo-species. Components map
// one-to-one onto phases at surface conditions but are transferable across
// phases in the reservoir (dissolved gas, vaporized oil, vaporized water).
type Component uint8

const (
	WaterComponent Component = iota
	OilComponent
	GasComponent

	NumComponents = 3
)

func (c Component) String() string {
	switch c {
	case WaterComponent:
		return "water"
	case OilComponent:
		return "oil"
	case GasComponent:
		return "gas"
	}
	return fmt.Sprintf("Component(%d)", uint8(c))
}

// Component returns the component that phase p carries at surface conditions.
func (p Phase) Component() Component {
	return Component(p)
}

// Phase returns the phase that carries component c at surface conditions.
func (c Component) Phase() Phase {
	return Phase(c)
}

// Config describes the compile/run-time switches of the fluid system. It is
// resolved once into a System at startup; the assembly kernel never consults
// raw configuration.
type Config struct {
	// EnabledPhases selects which phases have equation slots at all.
	EnabledPhases [NumPhases]bool

	// ActivePhases selects which enabled phases actually participate in the
	// run. An enabled-but-inactive phase keeps its slot, pinned to zero by a
	// trivial equation.
	ActivePhases [NumPhases]bool

	// Feed-forward mass transfer switches.
	DissolvedGas   bool // gas dissolved in oil (Rs)
	VaporizedOil   bool // oil vaporized in gas (Rv)
	VaporizedWater bool // water vaporized in gas (Rvw)

	// ConserveSurfaceVolume selects the conserved quantity: surface volume
	// when true, true mass (surface volume times reference density) when
	// false.
	ConserveSurfaceVolume bool

	// ReferenceDensities holds the surface density of each component, one
	// entry per PVT region.
	ReferenceDensities [][NumComponents]float64
}

// System is the resolved, immutable fluid-system description shared by all
// assembly calls.
type System struct {
	cfg               Config
	canonicalToActive [NumComponents]int
	activeToCanonical []Component
}

// ErrInvalidConfig tags every configuration rejection from NewSystem, so
// callers can test with errors.Is without matching message text.
var ErrInvalidConfig = errors.New("fluid: invalid configuration")

// NewSystem validates cfg and builds the component renumbering once. The
// mapping from canonical to active component indices skips disabled
// components and is bijective over the enabled subset.
func NewSystem(cfg Config) (*System, error) {
	anyEnabled := false
	for p := Phase(0); p < NumPhases; p++ {
		if cfg.ActivePhases[p] && !cfg.EnabledPhases[p] {
			return nil, fmt.Errorf("%w: phase %s is active but not enabled", ErrInvalidConfig, p)
		}
		anyEnabled = anyEnabled || cfg.EnabledPhases[p]
	}
	if !anyEnabled {
		return nil, fmt.Errorf("%w: no phase enabled", ErrInvalidConfig)
	}
	if cfg.DissolvedGas && (!cfg.EnabledPhases[Oil] || !cfg.EnabledPhases[Gas]) {
		return nil, fmt.Errorf("%w: dissolved gas requires the oil and gas phases", ErrInvalidConfig)
	}
	if cfg.VaporizedOil && (!cfg.EnabledPhases[Gas] || !cfg.EnabledPhases[Oil]) {
		return nil, fmt.Errorf("%w: vaporized oil requires the gas and oil phases", ErrInvalidConfig)
	}
	if cfg.VaporizedWater && (!cfg.EnabledPhases[Gas] || !cfg.EnabledPhases[Water]) {
		return nil, fmt.Errorf("%w: vaporized water requires the gas and water phases", ErrInvalidConfig)
	}
	if len(cfg.ReferenceDensities) == 0 {
		return nil, fmt.Errorf("%w: at least one PVT region is required", ErrInvalidConfig)
	}

	s := &System{cfg: cfg}
	for c := 0; c < NumComponents; c++ {
		s.canonicalToActive[c] = -1
	}
	for c := Component(0); c < NumComponents; c++ {
		if !cfg.EnabledPhases[c.Phase()] {
			continue
		}
		s.canonicalToActive[c] = len(s.activeToCanonical)
		s.activeToCanonical = append(s.activeToCanonical, c)
	}
	return s, nil
}

// NumActiveComponents returns the number of conservation-equation slots of
// the base system (disabled components excluded, inactive ones included).
func (s *System) NumActiveComponents() int { return len(s.activeToCanonical) }

// NumEnabledPhases returns how many phases have equation slots.
func (s *System) NumEnabledPhases() int { return len(s.activeToCanonical) }

// PhaseIsEnabled reports whether phase p has an equation slot.
func (s *System) PhaseIsEnabled(p Phase) bool { return s.cfg.EnabledPhases[p] }

// PhaseIsActive reports whether phase p participates in the run.
func (s *System) PhaseIsActive(p Phase) bool { return s.cfg.ActivePhases[p] }

// DissolvedGasEnabled reports whether oil carries dissolved gas (Rs).
func (s *System) DissolvedGasEnabled() bool { return s.cfg.DissolvedGas }

// VaporizedOilEnabled reports whether gas carries vaporized oil (Rv).
func (s *System) VaporizedOilEnabled() bool { return s.cfg.VaporizedOil }

// VaporizedWaterEnabled reports whether gas carries vaporized water (Rvw).
func (s *System) VaporizedWaterEnabled() bool { return s.cfg.VaporizedWater }

// ConserveSurfaceVolume reports the conservation mode.
func (s *System) ConserveSurfaceVolume() bool { return s.cfg.ConserveSurfaceVolume }

// NumPVTRegions returns the number of property-correlation regions.
func (s *System) NumPVTRegions() int { return len(s.cfg.ReferenceDensities) }

// ActiveComponentIndex maps a canonical component index to its equation slot.
// Requesting a disabled component is a contract violation and panics.
func (s *System) ActiveComponentIndex(c Component) int {
	idx := s.canonicalToActive[c]
	if idx < 0 {
		panic(fmt.Sprintf("fluid: component %s is disabled", c))
	}
	return idx
}

// CanonicalComponent is the inverse of ActiveComponentIndex.
func (s *System) CanonicalComponent(active int) Component {
	if active < 0 || active >= len(s.activeToCanonical) {
		panic(fmt.Sprintf("fluid: active component index %d out of range [0,%d)",
			active, len(s.activeToCanonical)))
	}
	return s.activeToCanonical[active]
}

// ReferenceDensity returns the surface density of component c in PVT region
// pvtRegion. Out-of-range regions are a contract violation and panic.
func (s *System) ReferenceDensity(c Component, pvtRegion int) float64 {
	if pvtRegion < 0 || pvtRegion >= len(s.cfg.ReferenceDensities) {
		panic(fmt.Sprintf("fluid: PVT region %d out of range [0,%d)",
			pvtRegion, len(s.cfg.ReferenceDensities)))
	}
	return s.cfg.ReferenceDensities[pvtRegion][c]
}
