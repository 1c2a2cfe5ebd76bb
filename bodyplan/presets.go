// Package bodyplan is the pattern layer: body-plan presets, time-windowed
// developmental modules, and evo-devo transforms (homeotic transformation,
// heterochrony, allometric growth).
package bodyplan

import (
	"fmt"
	"strings"

	"github.com/instar-sim/instar/systems"
)

// Identity selects a body-plan preset.
type Identity uint8

const (
	IdentityAncestral Identity = iota
	IdentityBeetle
	IdentityButterfly
	IdentityAnt
)

var identityNames = []string{"ancestral", "beetle", "butterfly", "ant"}

func (id Identity) String() string {
	if int(id) < len(identityNames) {
		return identityNames[id]
	}
	return fmt.Sprintf("Identity(%d)", uint8(id))
}

// ParseIdentity resolves a preset name, case-insensitively.
func ParseIdentity(name string) (Identity, error) {
	for i, n := range identityNames {
		if strings.EqualFold(name, n) {
			return Identity(i), nil
		}
	}
	return IdentityAncestral, fmt.Errorf("unknown body plan %q", name)
}

// GrowthRange marks a fraction of the segment sequence that grows or
// shrinks allometrically, with a signed relative weight.
type GrowthRange struct {
	FromFrac float64 // inclusive, fraction of segment count
	ToFrac   float64 // exclusive
	Weight   float64 // sign gives direction, magnitude scales the step
}

// Preset is a complete body-plan overwrite: dimensions, segment layout,
// and the allometric growth program for that identity.
type Preset struct {
	Identity   Identity
	BodyLength float64
	BodyWidth  float64
	BodyHeight float64
	Segments   []systems.BodySegment
	Growth     []GrowthRange
}

// PresetFor builds the preset for an identity. The layout params seed the
// procedural generator; presets then reshape the result.
func PresetFor(id Identity, layout systems.SegmentLayoutParams) Preset {
	switch id {
	case IdentityBeetle:
		return beetlePreset(layout)
	case IdentityButterfly:
		return butterflyPreset(layout)
	case IdentityAnt:
		return antPreset(layout)
	default:
		return ancestralPreset(layout)
	}
}

// ancestralPreset is the procedural default: 3 head, 3 thorax, 6 abdomen.
func ancestralPreset(layout systems.SegmentLayoutParams) Preset {
	if layout.HeadCount == 0 && layout.ThoraxCount == 0 && layout.AbdomenCount == 0 {
		layout.HeadCount, layout.ThoraxCount, layout.AbdomenCount = 3, 3, 6
	}
	return Preset{
		Identity:   IdentityAncestral,
		BodyLength: 10, BodyWidth: 4, BodyHeight: 4,
		Segments: systems.ProceduralSegments(layout),
		Growth: []GrowthRange{
			{FromFrac: 0.25, ToFrac: 0.5, Weight: 0.5}, // thorax mildly favored
		},
	}
}

// beetlePreset: compact, heavily sclerotized, elytra on the mesothorax.
func beetlePreset(layout systems.SegmentLayoutParams) Preset {
	layout.HeadCount, layout.ThoraxCount, layout.AbdomenCount = 2, 3, 5
	segs := systems.ProceduralSegments(layout)
	for i := range segs {
		segs[i].Size *= 1.2
	}
	// Mesothorax carries the wing cases: extra appendage pair.
	if len(segs) > 3 {
		segs[3].AppendagePairs = 2
	}
	return Preset{
		Identity:   IdentityBeetle,
		BodyLength: 8, BodyWidth: 5, BodyHeight: 4,
		Segments: segs,
		Growth: []GrowthRange{
			{FromFrac: 0.2, ToFrac: 0.55, Weight: 0.8}, // thorax armor
			{FromFrac: 0.55, ToFrac: 1.0, Weight: -0.3},
		},
	}
}

// butterflyPreset: long abdomen, large wing-bearing segments.
func butterflyPreset(layout systems.SegmentLayoutParams) Preset {
	layout.HeadCount, layout.ThoraxCount, layout.AbdomenCount = 2, 3, 7
	segs := systems.ProceduralSegments(layout)
	for i := 2; i < 5 && i < len(segs); i++ {
		segs[i].AppendagePairs = 2
		segs[i].Size *= 1.4
	}
	return Preset{
		Identity:   IdentityButterfly,
		BodyLength: 12, BodyWidth: 3, BodyHeight: 3,
		Segments: segs,
		Growth: []GrowthRange{
			{FromFrac: 0.15, ToFrac: 0.45, Weight: 1.0}, // wing segments dominate
			{FromFrac: 0.45, ToFrac: 1.0, Weight: 0.2},
		},
	}
}

// antPreset: narrow waist, enlarged gaster.
func antPreset(layout systems.SegmentLayoutParams) Preset {
	layout.HeadCount, layout.ThoraxCount, layout.AbdomenCount = 2, 3, 6
	segs := systems.ProceduralSegments(layout)
	// Petiole: the constriction between thorax and gaster.
	if len(segs) > 5 {
		segs[5].Size *= 0.4
		segs[5].Name = "Petiole"
	}
	for i := 6; i < len(segs); i++ {
		segs[i].Size *= 1.3
	}
	return Preset{
		Identity:   IdentityAnt,
		BodyLength: 9, BodyWidth: 3.5, BodyHeight: 3.5,
		Segments: segs,
		Growth: []GrowthRange{
			{FromFrac: 0.0, ToFrac: 0.25, Weight: 0.6}, // head
			{FromFrac: 0.6, ToFrac: 1.0, Weight: 0.7},  // gaster
			{FromFrac: 0.4, ToFrac: 0.6, Weight: -0.5}, // waist
		},
	}
}
