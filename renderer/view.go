// Package renderer draws the developing body: a morphogen field slice,
// the segment bands along the body axis, and the particle population.
package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/instar-sim/instar/components"
	"github.com/instar-sim/instar/systems"
)

// View renders the simulation in a fixed top-down projection: the body's
// anterior-posterior axis runs left to right, the dorsal-ventral axis
// top to bottom. The field slice is sampled at the lateral midplane.
type View struct {
	width  float32
	height float32

	// Margins around the body viewport.
	margin float32

	// Morphogen currently shown as the background heatmap.
	morphogen int

	sliceBuf []float64
}

// NewView creates a view for the given window size.
func NewView(width, height int32) *View {
	return &View{
		width:  float32(width),
		height: float32(height),
		margin: 40,
	}
}

// CycleMorphogen advances the heatmap to the next morphogen.
func (v *View) CycleMorphogen(count int) {
	if count > 0 {
		v.morphogen = (v.morphogen + 1) % count
	}
}

// Morphogen returns the index of the currently displayed morphogen.
func (v *View) Morphogen() int { return v.morphogen }

// Scene bundles everything one frame needs.
type Scene struct {
	Field      *systems.MorphogenField
	Segments   []systems.BodySegment
	Catalog    *systems.CellCatalog
	Snapshot   []components.ParticleState
	Stage      systems.Stage
	Progress   float64
	BodyLength float64
	BodyHeight float64
	Tick       int32
}

// Draw renders one frame. Callers wrap this in BeginDrawing/EndDrawing.
func (v *View) Draw(sc Scene) {
	rl.ClearBackground(rl.NewColor(18, 18, 24, 255))

	vx := v.margin
	vy := v.margin
	vw := v.width - 2*v.margin
	vh := v.height - 2*v.margin - 60

	v.drawField(sc, vx, vy, vw, vh)
	v.drawSegments(sc, vx, vy, vw, vh)
	v.drawParticles(sc, vx, vy, vw, vh)
	v.drawHUD(sc)
}

// drawField paints the midplane concentration slice of the selected
// morphogen as a cell grid.
func (v *View) drawField(sc Scene, vx, vy, vw, vh float32) {
	f := sc.Field
	if f == nil || v.morphogen >= f.NumMorphogens() {
		return
	}

	need := f.ResX * f.ResY
	if cap(v.sliceBuf) < need {
		v.sliceBuf = make([]float64, need)
	}
	v.sliceBuf = v.sliceBuf[:need]
	f.CopySliceZ(v.morphogen, f.ResZ/2, v.sliceBuf)

	cw := vw / float32(f.ResX)
	ch := vh / float32(f.ResY)

	for x := 0; x < f.ResX; x++ {
		for y := 0; y < f.ResY; y++ {
			c := v.sliceBuf[x*f.ResY+y]
			if c <= 0 {
				continue
			}
			a := c
			if a > 1 {
				a = 1
			}
			col := rl.NewColor(40, uint8(60+150*a), uint8(120+100*a), uint8(40+180*a))
			rl.DrawRectangle(
				int32(vx+float32(x)*cw), int32(vy+float32(y)*ch),
				int32(cw)+1, int32(ch)+1, col)
		}
	}
}

// drawSegments draws segment boundaries and labels along the body axis.
func (v *View) drawSegments(sc Scene, vx, vy, vw, vh float32) {
	for i := range sc.Segments {
		seg := &sc.Segments[i]
		cx := vx + float32(seg.RelativePosition)*vw
		half := float32(seg.Size) * vw

		border := rl.NewColor(200, 200, 200, 60)
		if seg.HasAppendages {
			border = rl.NewColor(255, 180, 80, 110)
		}
		rl.DrawRectangleLines(int32(cx-half), int32(vy), int32(2*half), int32(vh), border)
		rl.DrawText(seg.Name, int32(cx-half)+2, int32(vy)-14, 10, rl.NewColor(170, 170, 180, 255))
	}
}

// drawParticles projects the snapshot onto the viewport, colored by cell
// type from the catalog.
func (v *View) drawParticles(sc Scene, vx, vy, vw, vh float32) {
	if sc.BodyLength <= 0 || sc.BodyHeight <= 0 {
		return
	}
	halfLen := float32(sc.BodyLength) / 2
	halfHt := float32(sc.BodyHeight) / 2

	for i := range sc.Snapshot {
		p := &sc.Snapshot[i]
		if p.TypeIndex < 0 || p.TypeIndex >= sc.Catalog.Len() {
			continue
		}
		info := sc.Catalog.Info(systems.CellType(p.TypeIndex))

		u := (p.Position.X() + halfLen) / (2 * halfLen)
		w := (p.Position.Y() + halfHt) / (2 * halfHt)
		px := vx + u*vw
		py := vy + w*vh

		col := rl.NewColor(info.Color[0], info.Color[1], info.Color[2], 230)
		rl.DrawCircleV(rl.NewVector2(px, py), 1+info.Radius*20, col)
	}
}

// drawHUD prints the developmental readout below the viewport.
func (v *View) drawHUD(sc Scene) {
	y := int32(v.height) - 52

	line := fmt.Sprintf("tick %d   stage %s   progress %.2f   particles %d",
		sc.Tick, sc.Stage.String(), sc.Progress, len(sc.Snapshot))
	rl.DrawText(line, 40, y, 18, rl.RayWhite)

	if sc.Field != nil && v.morphogen < sc.Field.NumMorphogens() {
		m := sc.Field.MorphogenAt(v.morphogen)
		line = fmt.Sprintf("morphogen [%d] %s   avg %.3f   (TAB to cycle)",
			v.morphogen, m.Name, sc.Field.AverageConcentration(v.morphogen))
		rl.DrawText(line, 40, y+24, 16, rl.NewColor(150, 200, 255, 255))
	}
}
