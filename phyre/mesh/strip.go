package mesh

// RestartIndex terminates a strip. The next triangle starts a new one.
const RestartIndex = 0xFFFF

type StripOptions struct {
	// InvertWinding makes the first triangle after a restart (b,a,c) instead of (a,b,c).
	InvertWinding bool
	// SingleTriangleAsIs returns a 3 index strip unchanged, even when degenerate.
	SingleTriangleAsIs bool
}

func degenerate(a, b, c int) bool {
	return a == b || b == c || a == c || a == RestartIndex || b == RestartIndex || c == RestartIndex
}

// scanStrip walks the sliding window and calls emit for every triangle.
// A degenerate window resets the winding and skips the whole window.
func scanStrip(indexes []int, opts StripOptions, emit func(a, b, c int)) int {
	if opts.SingleTriangleAsIs && len(indexes) == 3 {
		if emit != nil {
			emit(indexes[0], indexes[1], indexes[2])
		}
		return 1
	}

	count := 0
	winding := !opts.InvertWinding
	for i := 0; i+2 < len(indexes); {
		a, b, c := indexes[i], indexes[i+1], indexes[i+2]
		if degenerate(a, b, c) {
			winding = !opts.InvertWinding
			i += 3
			continue
		}
		if emit != nil {
			if winding {
				emit(a, b, c)
			} else {
				emit(b, a, c)
			}
		}
		winding = !winding
		count++
		i++
	}
	return count
}

// CalculateFaceCount returns how many triangles GenerateTriangleList emits.
func CalculateFaceCount(strip []int, opts StripOptions) int {
	return scanStrip(strip, opts, nil)
}

// GenerateTriangleList expands a strip into a triangle list.
func GenerateTriangleList(strip []int, opts StripOptions) []int {
	list := make([]int, 0, CalculateFaceCount(strip, opts)*3)
	scanStrip(strip, opts, func(a, b, c int) {
		list = append(list, a, b, c)
	})
	return list
}

// TriangleListFromList drops the degenerate triangles of a triangle list.
func TriangleListFromList(indexes []int) []int {
	list := make([]int, 0, len(indexes)/3*3)
	for i := 0; i+2 < len(indexes); i += 3 {
		if !degenerate(indexes[i], indexes[i+1], indexes[i+2]) {
			list = append(list, indexes[i:i+3]...)
		}
	}
	return list
}

// Stripify chains a triangle list into a strip that GenerateTriangleList,
// with default options, expands back to the same triangles in the same
// order and orientation, possibly rotated. Degenerate triangles cannot be expressed and are
// dropped; their count is returned.
func Stripify(list []int) (strip []int, dropped int) {
	strip = make([]int, 0, len(list))
	// winding the decoder will use for the next window
	nextWinding := true

	for i := 0; i+2 < len(list); i += 3 {
		tri := [3]int{list[i], list[i+1], list[i+2]}
		if degenerate(tri[0], tri[1], tri[2]) {
			dropped++
			continue
		}

		if len(strip) >= 3 {
			p, q := strip[len(strip)-2], strip[len(strip)-1]
			chained := false
			for r := 0; r < 3 && !chained; r++ {
				u, v, w := tri[r], tri[(r+1)%3], tri[(r+2)%3]
				if (nextWinding && u == p && v == q) || (!nextWinding && u == q && v == p) {
					strip = append(strip, w)
					chained = true
				}
			}
			if chained {
				nextWinding = !nextWinding
				continue
			}
			strip = append(strip, RestartIndex)
		}
		strip = append(strip, tri[0], tri[1], tri[2])
		nextWinding = false
	}
	return strip, dropped
}
