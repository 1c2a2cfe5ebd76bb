package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/instar-sim/instar/components"
)

// BodySegment is an ordered body region along the anterior-posterior axis.
// Position is fixed for the segment's lifetime; identity attributes (size,
// appendages, allowed cell types) transfer under homeotic mutation.
type BodySegment struct {
	Name             string
	RelativePosition float64 // [0,1] along the AP axis, immutable
	Size             float64
	AllowedCellTypes []CellType
	LocalMorphogens  []string
	LocalGenes       []string
	HasAppendages    bool
	AppendagePairs   int
	Mutable          bool // head capsule segments resist identity swaps
}

// CopyIdentityFrom overwrites this segment's identity attributes from a
// donor while preserving RelativePosition and Name.
func (s *BodySegment) CopyIdentityFrom(donor *BodySegment) {
	s.Size = donor.Size
	s.HasAppendages = donor.HasAppendages
	s.AppendagePairs = donor.AppendagePairs
	s.AllowedCellTypes = append([]CellType(nil), donor.AllowedCellTypes...)
	s.LocalMorphogens = append([]string(nil), donor.LocalMorphogens...)
	s.LocalGenes = append([]string(nil), donor.LocalGenes...)
}

// SegmentLayoutParams tunes the procedural head/thorax/abdomen layout.
type SegmentLayoutParams struct {
	HeadCount         int
	ThoraxCount       int
	AbdomenCount      int
	ThoraxMorphogens  []string
	AbdomenMorphogens []string
}

// ProceduralSegments builds the default insect layout: head capsule,
// appendage-bearing thorax, abdomen. Positions are evenly spaced centers
// over [0,1].
func ProceduralSegments(p SegmentLayoutParams) []BodySegment {
	total := p.HeadCount + p.ThoraxCount + p.AbdomenCount
	if total == 0 {
		return nil
	}
	segs := make([]BodySegment, 0, total)

	for i := 0; i < total; i++ {
		pos := (float64(i) + 0.5) / float64(total)
		seg := BodySegment{
			RelativePosition: pos,
			Size:             1 / float64(total*2),
		}
		switch {
		case i < p.HeadCount:
			seg.Name = headNames(i)
			seg.AllowedCellTypes = []CellType{CellNeural, CellEpithelial, CellCuticle}
			seg.Mutable = false
		case i < p.HeadCount+p.ThoraxCount:
			t := i - p.HeadCount
			seg.Name = thoraxNames(t)
			seg.AllowedCellTypes = []CellType{CellMuscle, CellEpithelial, CellAppendage, CellTracheal}
			seg.LocalMorphogens = append([]string(nil), p.ThoraxMorphogens...)
			seg.HasAppendages = true
			seg.AppendagePairs = 1
			seg.Mutable = true
		default:
			a := i - p.HeadCount - p.ThoraxCount
			seg.Name = abdomenName(a)
			seg.AllowedCellTypes = []CellType{CellFat, CellCuticle, CellHemolymph, CellTracheal}
			seg.LocalMorphogens = append([]string(nil), p.AbdomenMorphogens...)
			seg.Mutable = true
		}
		segs = append(segs, seg)
	}
	return segs
}

var headSegmentNames = []string{"Ocular", "Antennal", "Mandibular"}
var thoraxSegmentNames = []string{"Prothorax", "Mesothorax", "Metathorax"}

func headNames(i int) string {
	if i < len(headSegmentNames) {
		return headSegmentNames[i]
	}
	return "Head" + string(rune('A'+i))
}

func thoraxNames(i int) string {
	if i < len(thoraxSegmentNames) {
		return thoraxSegmentNames[i]
	}
	return "Thorax" + string(rune('A'+i))
}

func abdomenName(i int) string {
	return "Abdomen" + string(rune('1'+i))
}

// SegmentAssignment buckets engine particles by their projection onto the
// body axis. Buckets are rebuilt from scratch every tick.
type SegmentAssignment struct {
	axis       mgl32.Vec3
	bodyLength float32
	buckets    [][]int // particle indices per segment
	counts     []int
}

// NewSegmentAssignment builds an assignment over the given axis and body
// length for segmentCount buckets.
func NewSegmentAssignment(axis mgl32.Vec3, bodyLength float64, segmentCount int) *SegmentAssignment {
	a := &SegmentAssignment{
		axis:       axis.Normalize(),
		bodyLength: float32(bodyLength),
		buckets:    make([][]int, segmentCount),
		counts:     make([]int, segmentCount),
	}
	for i := range a.buckets {
		a.buckets[i] = make([]int, 0, 32)
	}
	return a
}

// Resize rebuilds the bucket storage for a new segment count (preset swap).
func (a *SegmentAssignment) Resize(segmentCount int) {
	a.buckets = make([][]int, segmentCount)
	a.counts = make([]int, segmentCount)
	for i := range a.buckets {
		a.buckets[i] = make([]int, 0, 32)
	}
}

// Assign projects every active particle onto the body axis and buckets it:
// proj = dot(position, axis)/bodyLength + 0.5, bucket index clamped to the
// segment range. Particles with a negative type index are skipped.
func (a *SegmentAssignment) Assign(snapshot []components.ParticleState) {
	for i := range a.buckets {
		a.buckets[i] = a.buckets[i][:0]
		a.counts[i] = 0
	}
	segCount := len(a.buckets)
	if segCount == 0 {
		return
	}

	for i := range snapshot {
		p := &snapshot[i]
		if p.TypeIndex < 0 {
			continue
		}
		proj := p.Position.Dot(a.axis)/a.bodyLength + 0.5
		idx := clampInt(int(math.Floor(float64(proj)*float64(segCount))), 0, segCount-1)
		a.buckets[idx] = append(a.buckets[idx], i)
		a.counts[idx]++
	}
}

// Bucket returns the particle indices assigned to one segment.
func (a *SegmentAssignment) Bucket(segment int) []int {
	return a.buckets[clampInt(segment, 0, len(a.buckets)-1)]
}

// Counts returns per-segment particle counts for diagnostics.
func (a *SegmentAssignment) Counts() []int { return a.counts }
