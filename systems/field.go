package systems

import (
	"fmt"
	"log/slog"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"
)

// GradientKind selects the maternal gradient deposited along the
// anterior-posterior axis at initialization.
type GradientKind uint8

const (
	GradientNone GradientKind = iota
	GradientAnterior
	GradientPosterior
)

// Morphogen is a named diffusible signal.
type Morphogen struct {
	Name          string
	DiffusionRate float64
	DecayRate     float64
	Baseline      float64
	Gradient      GradientKind
	Targets       []CellType // downstream consumers only; diffusion ignores these
	Active        bool
}

// FieldOptions holds initialization parameters for the morphogen field.
type FieldOptions struct {
	Seed           int64
	NoiseScale     float64 // opensimplex frequency over normalized body space
	NoiseAmplitude float64 // 0 disables the perturbation
	Parallel       bool    // sweep morphogens on separate goroutines
}

// MorphogenField is a per-morphogen 3D concentration grid over normalized
// body space [0,1]^3. Concentrations are unclamped: transient negatives are
// possible and accepted in this model.
type MorphogenField struct {
	ResX, ResY, ResZ int

	morphogens []Morphogen
	grids      [][]float64 // one flat ResX*ResY*ResZ grid per morphogen
	tmp        [][]float64 // shadow buffers for the diffusion sweep
	byName     map[string]int
	opts       FieldOptions
}

// NewMorphogenField allocates the grids once and deposits baselines,
// maternal gradients, and the optional noise perturbation.
func NewMorphogenField(morphogens []Morphogen, resX, resY, resZ int, opts FieldOptions) (*MorphogenField, error) {
	if len(morphogens) == 0 {
		return nil, fmt.Errorf("no morphogens")
	}
	if resX <= 0 || resY <= 0 || resZ <= 0 {
		return nil, fmt.Errorf("invalid field resolution %dx%dx%d", resX, resY, resZ)
	}

	f := &MorphogenField{
		ResX:       resX,
		ResY:       resY,
		ResZ:       resZ,
		morphogens: make([]Morphogen, len(morphogens)),
		grids:      make([][]float64, len(morphogens)),
		tmp:        make([][]float64, len(morphogens)),
		byName:     make(map[string]int, len(morphogens)),
		opts:       opts,
	}
	copy(f.morphogens, morphogens)

	cells := resX * resY * resZ
	for i := range f.morphogens {
		f.grids[i] = make([]float64, cells)
		f.tmp[i] = make([]float64, cells)
		f.byName[f.morphogens[i].Name] = i
	}
	f.deposit()
	return f, nil
}

// Reset restores the exact initial concentrations.
func (f *MorphogenField) Reset() {
	f.deposit()
}

// deposit fills every grid with baseline + gradient + noise. Deterministic
// for a given seed so Reset reproduces the initial state exactly.
func (f *MorphogenField) deposit() {
	var noise opensimplex.Noise
	if f.opts.NoiseAmplitude > 0 {
		noise = opensimplex.NewNormalized(f.opts.Seed)
	}

	for gi := range f.morphogens {
		m := &f.morphogens[gi]
		grid := f.grids[gi]
		for x := 0; x < f.ResX; x++ {
			u := 0.5
			if f.ResX > 1 {
				u = float64(x) / float64(f.ResX-1)
			}
			base := m.Baseline
			switch m.Gradient {
			case GradientAnterior:
				base = m.Baseline * 2 * (1 - u)
			case GradientPosterior:
				base = m.Baseline * 2 * u
			}
			for y := 0; y < f.ResY; y++ {
				for z := 0; z < f.ResZ; z++ {
					c := base
					if noise != nil {
						n := noise.Eval3(
							u*f.opts.NoiseScale,
							float64(y)/float64(f.ResY)*f.opts.NoiseScale,
							float64(z)/float64(f.ResZ)*f.opts.NoiseScale+float64(gi)*10,
						)
						c += f.opts.NoiseAmplitude * (n - 0.5) * 2
					}
					grid[f.idx(x, y, z)] = c
				}
			}
		}
	}
}

// idx maps 3D grid coordinates to the flat slice offset.
func (f *MorphogenField) idx(x, y, z int) int {
	return (x*f.ResY+y)*f.ResZ + z
}

// NumMorphogens returns the number of morphogen grids.
func (f *MorphogenField) NumMorphogens() int { return len(f.morphogens) }

// Index resolves a morphogen name to its grid index.
func (f *MorphogenField) Index(name string) (int, bool) {
	i, ok := f.byName[name]
	return i, ok
}

// MorphogenAt returns the morphogen definition at index i.
func (f *MorphogenField) MorphogenAt(i int) *Morphogen { return &f.morphogens[i] }

// Concentration reads one cell. Test and diagnostics access.
func (f *MorphogenField) Concentration(i, x, y, z int) float64 {
	return f.grids[i][f.idx(x, y, z)]
}

// SetConcentration writes one cell. Test access.
func (f *MorphogenField) SetConcentration(i, x, y, z int, v float64) {
	f.grids[i][f.idx(x, y, z)] = v
}

// Sum returns the total concentration mass of one grid.
func (f *MorphogenField) Sum(i int) float64 {
	return floats.Sum(f.grids[i])
}

// AverageConcentration returns the arithmetic mean over the whole grid.
// This is the only read primitive the gene layer uses: expression responds
// to the global average, not to a local sample.
func (f *MorphogenField) AverageConcentration(i int) float64 {
	return floats.Sum(f.grids[i]) / float64(len(f.grids[i]))
}

// Averages returns a snapshot of all per-morphogen averages. Safe to hand
// to a render or telemetry consumer; never aliases the live grids.
func (f *MorphogenField) Averages() []float64 {
	out := make([]float64, len(f.grids))
	for i := range f.grids {
		out[i] = f.AverageConcentration(i)
	}
	return out
}

// CopySliceZ copies the z-plane of morphogen i into dst (len ResX*ResY).
func (f *MorphogenField) CopySliceZ(i, z int, dst []float64) {
	grid := f.grids[i]
	for x := 0; x < f.ResX; x++ {
		for y := 0; y < f.ResY; y++ {
			dst[x*f.ResY+y] = grid[f.idx(x, y, z)]
		}
	}
}

// Activate adds amount uniformly to every cell of the named morphogen and
// marks it active. Unknown names are a silent no-op (logged at debug):
// scripted pulses against a typo complete without effect.
func (f *MorphogenField) Activate(name string, amount float64) {
	i, ok := f.byName[name]
	if !ok {
		slog.Debug("activate: unknown morphogen", "name", name)
		return
	}
	f.ActivateIndex(i, amount)
}

// ActivateIndex is the index-addressed form of Activate.
func (f *MorphogenField) ActivateIndex(i int, amount float64) {
	floats.AddConst(amount, f.grids[i])
	f.morphogens[i].Active = true
}

// Diffuse advances every mobile morphogen by one 6-neighbor averaging step.
// Morphogens with non-positive diffusion rate are skipped entirely; their
// decay is skipped with them. All reads within one step see the pre-step
// field via the shadow buffer.
func (f *MorphogenField) Diffuse(dt float64) {
	if f.opts.Parallel {
		var wg sync.WaitGroup
		for gi := range f.morphogens {
			if f.morphogens[gi].DiffusionRate <= 0 {
				continue
			}
			wg.Add(1)
			go func(gi int) {
				defer wg.Done()
				f.diffuseOne(gi, dt)
			}(gi)
		}
		wg.Wait()
		return
	}

	for gi := range f.morphogens {
		if f.morphogens[gi].DiffusionRate <= 0 {
			continue
		}
		f.diffuseOne(gi, dt)
	}
}

// diffuseOne runs the boundary-clamped 6-neighbor sweep for one morphogen.
func (f *MorphogenField) diffuseOne(gi int, dt float64) {
	m := &f.morphogens[gi]
	src := f.grids[gi]
	dst := f.tmp[gi]

	for x := 0; x < f.ResX; x++ {
		for y := 0; y < f.ResY; y++ {
			for z := 0; z < f.ResZ; z++ {
				i := f.idx(x, y, z)
				c := src[i]

				var sum float64
				var n int
				if x > 0 {
					sum += src[f.idx(x-1, y, z)]
					n++
				}
				if x < f.ResX-1 {
					sum += src[f.idx(x+1, y, z)]
					n++
				}
				if y > 0 {
					sum += src[f.idx(x, y-1, z)]
					n++
				}
				if y < f.ResY-1 {
					sum += src[f.idx(x, y+1, z)]
					n++
				}
				if z > 0 {
					sum += src[f.idx(x, y, z-1)]
					n++
				}
				if z < f.ResZ-1 {
					sum += src[f.idx(x, y, z+1)]
					n++
				}

				avg := sum / float64(n)
				dst[i] = c + (avg-c)*m.DiffusionRate*dt - c*m.DecayRate*dt
			}
		}
	}

	copy(src, dst)
}

// InjectSegments adds each segment's local morphogens into a column around
// the segment's projected position: linear falloff from 1 at the center to
// 0 at radius cells, applied uniformly across the two non-axis dimensions.
// Unknown morphogen names are skipped silently.
func (f *MorphogenField) InjectSegments(segments []BodySegment, concentration, dt float64) {
	for si := range segments {
		seg := &segments[si]
		if len(seg.LocalMorphogens) == 0 {
			continue
		}

		cx := int(seg.RelativePosition*float64(f.ResX-1) + 0.5)
		cx = clampInt(cx, 0, f.ResX-1)
		radius := int(seg.Size * float64(f.ResX))
		if radius < 1 {
			radius = 1
		}

		for _, name := range seg.LocalMorphogens {
			gi, ok := f.byName[name]
			if !ok {
				slog.Debug("segment injection: unknown morphogen", "segment", seg.Name, "name", name)
				continue
			}
			grid := f.grids[gi]

			for dx := -radius; dx <= radius; dx++ {
				x := cx + dx
				if x < 0 || x >= f.ResX {
					continue
				}
				falloff := 1 - float64(absInt(dx))/float64(radius)
				if falloff <= 0 {
					continue
				}
				add := concentration * falloff * dt
				for y := 0; y < f.ResY; y++ {
					for z := 0; z < f.ResZ; z++ {
						grid[f.idx(x, y, z)] += add
					}
				}
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
