// SPDX-License-Identifier: MIT
package render

import "math"

// ColumnWindow returns the half-open sample range [start, end) that output
// column x of width summarizes, for a buffer of n samples. Windows are
// contiguous and cover the buffer; when there are fewer samples than
// columns a column is widened to one sample so it still draws. A column
// with start >= n is empty.
func ColumnWindow(x, n, width int) (start, end int) {
	start = x * n / width
	end = (x + 1) * n / width
	if end <= start {
		end = min(n, start+1)
	}
	return start, end
}

// timeGrid maps each output column to a fractional frame position evenly
// spaced over [0, frames-1].
type timeGrid struct {
	index []int
	frac  []float64
}

func newTimeGrid(frames, width int) timeGrid {
	g := timeGrid{index: make([]int, width), frac: make([]float64, width)}
	last := frames - 1
	if width == 1 || last <= 0 {
		return g
	}
	step := float64(last) / float64(width-1)
	for x := range width {
		pos := float64(x) * step
		i := int(pos)
		if i >= last {
			g.index[x] = last
			continue
		}
		g.index[x] = i
		g.frac[x] = pos - float64(i)
	}
	g.index[width-1] = last
	g.frac[width-1] = 0
	return g
}

func (g timeGrid) resample(dst, src []float64) {
	for x, i := range g.index {
		f := g.frac[x]
		if f == 0 {
			dst[x] = src[i]
			continue
		}
		dst[x] = src[i] + f*(src[i+1]-src[i])
	}
}

// ResampleRow linearly interpolates src onto width points evenly spaced
// over [0, len(src)-1]. The first and last outputs equal the first and last
// inputs.
func ResampleRow(src []float64, width int) []float64 {
	dst := make([]float64, width)
	newTimeGrid(len(src), width).resample(dst, src)
	return dst
}

// FrequencyIndex maps output row y of height rows onto the mel axis. The
// bottom row reads bin 0 and the top row maxBin; the fraction is squared so
// the lower bins get more rows. Rows i0 and i1 are blended by alpha.
func FrequencyIndex(y, height, maxBin int) (i0, i1 int, alpha float64) {
	frac := 1 - float64(y)/float64(max(1, height-1))
	idx := frac * frac * float64(maxBin)
	i0 = int(math.Floor(idx))
	i1 = min(maxBin, i0+1)
	alpha = idx - float64(i0)
	return i0, i1, alpha
}

// RemapRow fills dst with output row y of height rows, read from the mel
// rows. Neighbouring bins on both sides are blended in with weights
// 0.25/0.5/0.25 to suppress aliasing from the nonlinear bin mapping.
func RemapRow(dst []float64, rows [][]float64, y, height int) {
	maxBin := len(rows) - 1
	i0, i1, alpha := FrequencyIndex(y, height, maxBin)
	il := max(0, i0-1)
	ir := min(maxBin, i1+1)

	r0, r1, rl, rr := rows[i0], rows[i1], rows[il], rows[ir]
	for x := range dst {
		base := (1-alpha)*r0[x] + alpha*r1[x]
		left := (1-alpha)*rl[x] + alpha*r0[x]
		right := (1-alpha)*r1[x] + alpha*rr[x]
		dst[x] = 0.5*base + 0.25*left + 0.25*right
	}
}

// RemapRows builds the full height x width frequency-remapped matrix from
// the mel rows, row 0 being the highest frequency.
func RemapRows(rows [][]float64, height int) [][]float64 {
	out := make([][]float64, height)
	if len(rows) == 0 {
		return out
	}
	for y := range out {
		out[y] = make([]float64, len(rows[0]))
		RemapRow(out[y], rows, y, height)
	}
	return out
}
