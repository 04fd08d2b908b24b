// Package forecast turns daily temperature samples into a drawable curve.
package forecast

import (
	"math"
	"strconv"
	"strings"
)

// Margin is added below the coldest and above the warmest sample so the
// curve never touches the frame.
const Margin = 5.0

// Plot range used when no samples are available.
const (
	fallbackMin = 0.0
	fallbackMax = 50.0
)

// Op is a path drawing instruction.
type Op byte

const (
	MoveTo Op = 'M'
	QuadTo Op = 'Q'
)

// Point is a position in plot coordinates (origin top-left, y grows down).
type Point struct {
	X, Y float64
}

// Segment is one path instruction. Control is only meaningful for QuadTo.
type Segment struct {
	Op      Op
	Control Point
	To      Point
}

// Path is the result of Curve. The zero value is the empty path.
type Path struct {
	MinTemp  float64
	MaxTemp  float64
	Segments []Segment
}

// Empty reports whether the path draws nothing.
func (p Path) Empty() bool { return len(p.Segments) == 0 }

// String renders the path in SVG path syntax.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p.Segments {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(s.Op))
		if s.Op == QuadTo {
			b.WriteByte(' ')
			writePoint(&b, s.Control)
		}
		b.WriteByte(' ')
		writePoint(&b, s.To)
	}
	return b.String()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}

// Curve builds a smooth path through the first daysCount samples inside a
// width x height box. Each sample sits in the middle of its day column.
// Neighbouring samples are joined by two quadratic segments meeting at their
// midpoint, which keeps the tangent horizontal at every sample.
//
// The path starts with four move-to points at the corners of the plot so the
// renderer can size the drawing; they do not form a closed shape.
func Curve(samples []float64, daysCount int, width, height float64) Path {
	if daysCount <= 0 || width == 0 || height == 0 {
		return Path{}
	}
	if len(samples) > daysCount {
		samples = samples[:daysCount]
	}

	minTemp, maxTemp := fallbackMin, fallbackMax
	if len(samples) > 0 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, t := range samples {
			lo = math.Min(lo, t)
			hi = math.Max(hi, t)
		}
		minTemp, maxTemp = lo-Margin, hi+Margin
	}

	span := maxTemp - minTemp
	scale := height / span
	dayWidth := width / float64(daysCount)
	right := float64(daysCount) * dayWidth
	bottom := span * scale

	x := func(i int) float64 { return float64(i)*dayWidth + 0.5*dayWidth }
	y := func(t float64) float64 { return (maxTemp - t) * scale }

	segs := make([]Segment, 0, 5+2*len(samples))
	for _, corner := range []Point{{0, 0}, {right, 0}, {right, bottom}, {0, bottom}} {
		segs = append(segs, Segment{Op: MoveTo, To: corner})
	}

	for i, t := range samples {
		if i == 0 {
			segs = append(segs, Segment{Op: MoveTo, To: Point{x(0), y(t)}})
		}
		if i+1 >= len(samples) {
			break
		}

		x1, x2 := x(i), x(i+1)
		y1, y2 := y(t), y(samples[i+1])
		midX, midY := (x1+x2)/2, (y1+y2)/2

		segs = append(segs,
			Segment{Op: QuadTo, Control: Point{(midX + x1) / 2, y1}, To: Point{midX, midY}},
			Segment{Op: QuadTo, Control: Point{(midX + x2) / 2, y2}, To: Point{x2, y2}},
		)
	}

	return Path{
		MinTemp:  minTemp,
		MaxTemp:  maxTemp,
		Segments: segs,
	}
}
