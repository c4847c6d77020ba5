package mesh

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTriangleList(t *testing.T) {
	const R = RestartIndex
	for _, test := range []struct {
		name   string
		strip  []int
		opts   StripOptions
		expect []int
	}{
		{"alternating winding", []int{0, 1, 2, 3, 4}, StripOptions{}, []int{0, 1, 2, 2, 1, 3, 2, 3, 4}},
		{"inverted winding", []int{0, 1, 2, 3}, StripOptions{InvertWinding: true}, []int{1, 0, 2, 1, 2, 3}},
		{"single triangle", []int{5, 6, 7}, StripOptions{}, []int{5, 6, 7}},
		{"restart resets winding", []int{0, 1, 2, 3, R, 4, 5, 6, 7}, StripOptions{}, []int{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7}},
		{"repeated index skips window", []int{0, 1, 1, 2, 3, 4}, StripOptions{}, []int{2, 3, 4}},
		{"consecutive degenerate windows", []int{0, 0, 0, 1, 1, 1, 2, 3, 4}, StripOptions{}, []int{2, 3, 4}},
		{"all degenerate", []int{0, 0, 0, R, R, R, 1, 1, 2}, StripOptions{}, []int{}},
		{"short", []int{0, 1}, StripOptions{}, []int{}},
		{"empty", nil, StripOptions{}, []int{}},
		{"degenerate single as is", []int{3, 3, 4}, StripOptions{SingleTriangleAsIs: true}, []int{3, 3, 4}},
		{"degenerate single", []int{3, 3, 4}, StripOptions{}, []int{}},
	} {
		t.Run(test.name, func(t *testing.T) {
			list := GenerateTriangleList(test.strip, test.opts)
			assert.Equal(t, test.expect, list)
			assert.Equal(t, len(list)/3, CalculateFaceCount(test.strip, test.opts))
		})
	}
}

func TestFaceCountMatchesFillPass(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		strip := make([]int, rnd.Intn(40))
		for j := range strip {
			if rnd.Intn(8) == 0 {
				strip[j] = RestartIndex
			} else {
				strip[j] = rnd.Intn(6)
			}
		}
		for _, opts := range []StripOptions{{}, {InvertWinding: true}, {SingleTriangleAsIs: true}} {
			list := GenerateTriangleList(strip, opts)
			require.Equal(t, CalculateFaceCount(strip, opts)*3, len(list), "strip %v", strip)
		}
	}
}

func TestTriangleListFromList(t *testing.T) {
	list := TriangleListFromList([]int{0, 1, 2, 3, 3, 4, 5, 6, 7, 8})
	assert.Equal(t, []int{0, 1, 2, 5, 6, 7}, list)
}

func randomMesh(rnd *rand.Rand, vertices, triangles int) []int {
	list := make([]int, 0, triangles*3)
	for len(list) < triangles*3 {
		a := rnd.Intn(vertices)
		// neighbours make chains likely
		b := (a + 1 + rnd.Intn(2)) % vertices
		c := (b + 1 + rnd.Intn(2)) % vertices
		if a == c {
			continue
		}
		list = append(list, a, b, c)
	}
	return list
}

// rotateFaces turns every triangle so its smallest index comes first,
// which keeps the orientation.
func rotateFaces(list []int) []int {
	out := make([]int, len(list))
	for i := 0; i+2 < len(list); i += 3 {
		a, b, c := list[i], list[i+1], list[i+2]
		for a > b || a > c {
			a, b, c = b, c, a
		}
		out[i], out[i+1], out[i+2] = a, b, c
	}
	return out
}

func TestStripifyRoundTrip(t *testing.T) {
	grid := []int{
		0, 1, 2,
		2, 1, 3,
		2, 3, 4,
		4, 3, 5,
		9, 8, 7,
		1, 0, 6,
	}
	strip, dropped := Stripify(grid)
	assert.Zero(t, dropped)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, RestartIndex, 9, 8, 7, RestartIndex, 1, 0, 6}, strip)
	assert.Equal(t, grid, GenerateTriangleList(strip, StripOptions{}))

	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		list := randomMesh(rnd, 3+rnd.Intn(10), rnd.Intn(30))
		strip, dropped := Stripify(list)
		require.Zero(t, dropped)
		require.Equal(t, rotateFaces(list), rotateFaces(GenerateTriangleList(strip, StripOptions{})), "list %v strip %v", list, strip)
	}
}

func TestStripifyDropsDegenerate(t *testing.T) {
	strip, dropped := Stripify([]int{0, 1, 2, 4, 4, 5, 1, 3, 2})
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []int{0, 1, 2, 3}, strip)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 3}, GenerateTriangleList(strip, StripOptions{}))
}
