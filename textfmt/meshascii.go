package textfmt

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/phyre_browser/phyre/mesh"
)

// MeshASCII is the geometry part of a mesh.ascii file. Bones declared in
// the file header are skipped, per vertex skinning is kept when present.
type MeshASCII struct {
	Submeshes []*mesh.Submesh
}

// WriteMeshASCII writes submeshes without a skeleton, one uv layer and one
// texture slot per submesh holding the material name.
func WriteMeshASCII(_w io.Writer, submeshes []*mesh.Submesh) error {
	bw := bufio.NewWriter(_w)
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	w("0")
	w("%d", len(submeshes))
	for i, sm := range submeshes {
		name := sm.Name
		if name == "" {
			name = mesh.SubmeshName(i)
		}
		material := sm.Material
		if material == "" {
			material = mesh.MaterialName(i)
		}
		w("%s", name)
		w("1")
		w("1")
		w("%s", material)
		w("0")
		w("%d", len(sm.Positions))
		for v, p := range sm.Positions {
			var n mesh.Normal
			if sm.Normals != nil {
				n = sm.Normals[v]
			}
			var uv mesh.UV
			if sm.UVs != nil {
				uv = sm.UVs[v]
			}
			w("%s %s %s", ff(p[0]), ff(p[1]), ff(p[2]))
			w("%s %s %s", ff(n[0]), ff(n[1]), ff(n[2]))
			w("255 255 255 255")
			w("%s %s", ff(uv[0]), ff(uv[1]))
		}
		w("%d", sm.TrianglesCount())
		for f := 0; f+2 < len(sm.Indexes); f += 3 {
			w("%d %d %d", sm.Indexes[f], sm.Indexes[f+1], sm.Indexes[f+2])
		}
	}
	return bw.Flush()
}

func parseMeshASCIISubmesh(c *cursor, bones int) (*mesh.Submesh, error) {
	nameLine, err := c.next()
	if err != nil {
		return nil, err
	}
	sm := &mesh.Submesh{Name: nameLine.raw}

	uvLayers, err := c.nextInt()
	if err != nil {
		return nil, err
	}
	textures, err := c.nextInt()
	if err != nil {
		return nil, err
	}
	if uvLayers < 0 || textures < 0 {
		return nil, nameLine.errorf("negative uv layer or texture count")
	}
	for t := 0; t < textures; t++ {
		tl, err := c.next()
		if err != nil {
			return nil, err
		}
		if t == 0 {
			sm.Material = tl.raw
		}
		// uv layer of the texture
		if _, err := c.nextInt(); err != nil {
			return nil, err
		}
	}

	vertices, err := c.nextInt()
	if err != nil {
		return nil, err
	}
	if vertices < 0 {
		return nil, nameLine.errorf("negative vertex count %d", vertices)
	}
	sm.Positions = make([]mesh.Position, vertices)
	sm.Normals = make([]mesh.Normal, vertices)
	if uvLayers > 0 {
		sm.UVs = make([]mesh.UV, vertices)
	}
	if bones > 0 {
		sm.Joints = make([][4]uint16, vertices)
		sm.Weights = make([][4]float32, vertices)
	}

	for v := 0; v < vertices; v++ {
		var l *line
		if l, err = c.next(); err == nil {
			err = l.floats(0, sm.Positions[v][:])
		}
		if err == nil {
			if l, err = c.next(); err == nil {
				err = l.floats(0, sm.Normals[v][:])
			}
		}
		if err == nil {
			// vertex color is not stored in the container
			_, err = c.next()
		}
		for layer := 0; err == nil && layer < uvLayers; layer++ {
			if l, err = c.next(); err == nil && layer == 0 {
				err = l.floats(0, sm.UVs[v][:])
			}
		}
		if err == nil && bones > 0 {
			if l, err = c.next(); err == nil {
				for k := 0; k < 4 && err == nil; k++ {
					var joint int
					joint, err = l.int(k)
					if err == nil && (joint < 0 || joint >= bones) {
						err = l.errorf("bone %d out of %d", joint, bones)
					}
					sm.Joints[v][k] = uint16(joint)
				}
			}
			if err == nil {
				if l, err = c.next(); err == nil {
					err = l.floats(0, sm.Weights[v][:])
				}
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %d", v)
		}
	}

	faces, err := c.nextInt()
	if err != nil {
		return nil, err
	}
	if faces < 0 {
		return nil, nameLine.errorf("negative face count %d", faces)
	}
	sm.Indexes = make([]int, faces*3)
	for f := 0; f < faces; f++ {
		l, err := c.next()
		if err != nil {
			return nil, errors.Wrapf(err, "face %d", f)
		}
		// trailing per face skinning values are ignored
		for k := 0; k < 3; k++ {
			index, err := l.int(k)
			if err != nil {
				return nil, err
			}
			if index < 0 || index >= vertices {
				return nil, l.errorf("vertex %d out of %d", index, vertices)
			}
			sm.Indexes[f*3+k] = index
		}
	}
	return sm, nil
}

func ParseMeshASCII(text []byte) (*MeshASCII, error) {
	lines, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	c := &cursor{lines: lines}

	bones, err := c.nextInt()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse mesh.ascii bone count")
	}
	// name, parent, position
	for i := 0; i < bones*3; i++ {
		if _, err := c.next(); err != nil {
			return nil, errors.Wrapf(err, "Failed to parse mesh.ascii bone %d", i/3)
		}
	}

	count, err := c.nextInt()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse mesh.ascii submesh count")
	}
	if bones < 0 || count < 0 {
		return nil, errors.Errorf("Failed to parse mesh.ascii: %d bones, %d submeshes", bones, count)
	}
	m := &MeshASCII{Submeshes: make([]*mesh.Submesh, 0, count)}
	for i := 0; i < count; i++ {
		sm, err := parseMeshASCIISubmesh(c, bones)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse mesh.ascii submesh %d", i)
		}
		m.Submeshes = append(m.Submeshes, sm)
	}
	return m, nil
}
