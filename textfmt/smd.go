package textfmt

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/utils"
)

type Link struct {
	Bone   int
	Weight float32
}

type SMDVertex struct {
	Bone     int
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Links    []Link
}

type SMDTriangle struct {
	Material string
	Vertices [3]SMDVertex
}

type SMD struct {
	Version   int
	Skeleton  *skeleton.Skeleton
	Triangles []SMDTriangle
}

// TriangleMaterial names the triangles of the i-th submesh.
func TriangleMaterial(i int) string {
	return fmt.Sprintf("Submesh_%d", i)
}

// ByMaterial groups triangles keeping their order.
func (s *SMD) ByMaterial() map[string][]SMDTriangle {
	groups := make(map[string][]SMDTriangle)
	for _, tri := range s.Triangles {
		groups[tri.Material] = append(groups[tri.Material], tri)
	}
	return groups
}

func ff(f float32) string {
	return fmt.Sprintf("%.6f", utils.Sanitize(f))
}

func links(sm *mesh.Submesh, v int) (parent int, result []Link) {
	best := float32(0)
	for k, w := range sm.Weights[v] {
		if w > 0 {
			bone := int(sm.Joints[v][k])
			result = append(result, Link{Bone: bone, Weight: w})
			if w > best {
				best, parent = w, bone
			}
		}
	}
	return parent, result
}

// WriteSMD writes the bind pose and, when submeshes are given, their triangles.
func WriteSMD(_w io.Writer, skel *skeleton.Skeleton, submeshes []*mesh.Submesh) error {
	bw := bufio.NewWriter(_w)
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	w("version 1")
	w("nodes")
	if skel != nil {
		for _, b := range skel.Bones {
			w("%d %q %d", b.Id, b.Name, b.ParentId)
		}
	}
	w("end")
	w("skeleton")
	w("time 0")
	if skel != nil {
		for _, b := range skel.Bones {
			t, e := b.Translation, b.Euler
			w("%d  %s %s %s  %s %s %s", b.Id, ff(t[0]), ff(t[1]), ff(t[2]), ff(e[0]), ff(e[1]), ff(e[2]))
		}
	}
	w("end")

	for i, sm := range submeshes {
		w("triangles")
		for f := 0; f+2 < len(sm.Indexes); f += 3 {
			w("%s", TriangleMaterial(i))
			for _, v := range sm.Indexes[f : f+3] {
				p := sm.Positions[v]
				var n mesh.Normal
				if sm.Normals != nil {
					n = sm.Normals[v]
				}
				var uv mesh.UV
				if sm.UVs != nil {
					uv = sm.UVs[v]
				}
				parent, ls := 0, []Link(nil)
				if sm.Skinned() {
					parent, ls = links(sm, v)
				}
				line := fmt.Sprintf("%d  %s %s %s  %s %s %s  %s %s", parent,
					ff(p[0]), ff(p[1]), ff(p[2]), ff(n[0]), ff(n[1]), ff(n[2]), ff(uv[0]), ff(uv[1]))
				if sm.Skinned() {
					line += fmt.Sprintf(" %d", len(ls))
					for _, l := range ls {
						line += fmt.Sprintf(" %d %s", l.Bone, ff(l.Weight))
					}
				}
				w("%s", line)
			}
		}
		w("end")
	}
	return bw.Flush()
}

func parseNodes(c *cursor, s *SMD) error {
	type node struct {
		id, parent int
		name       string
	}
	nodes := make([]node, 0)
	for {
		l, err := c.next()
		if err != nil {
			return errors.Wrap(err, "nodes")
		}
		if l.keyword() == "end" {
			break
		}
		var n node
		if n.id, err = l.int(0); err != nil {
			return err
		}
		if n.name, err = l.str(1); err != nil {
			return err
		}
		if n.parent, err = l.int(2); err != nil {
			return err
		}
		nodes = append(nodes, n)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	s.Skeleton = &skeleton.Skeleton{Bones: make([]skeleton.Bone, len(nodes))}
	for i, n := range nodes {
		if n.id != i {
			return errors.Errorf("node ids must be 0..%d, got %d", len(nodes)-1, n.id)
		}
		if n.parent < -1 || n.parent >= len(nodes) || n.parent == i {
			return errors.Errorf("node %d %q has parent %d", n.id, n.name, n.parent)
		}
		s.Skeleton.Bones[i] = skeleton.Bone{Id: i, ParentId: n.parent, Name: n.name, Rotation: mgl32.QuatIdent()}
	}
	return nil
}

func parsePose(c *cursor, s *SMD) error {
	frame := -1
	for {
		l, err := c.next()
		if err != nil {
			return errors.Wrap(err, "skeleton")
		}
		if l.keyword() == "end" {
			return nil
		}
		if tok, _ := l.str(0); tok == "time" {
			if frame, err = l.int(1); err != nil {
				return err
			}
			continue
		}
		// bind pose only
		if frame != 0 {
			continue
		}

		id, err := l.int(0)
		if err != nil {
			return err
		}
		if s.Skeleton == nil || id < 0 || id >= len(s.Skeleton.Bones) {
			return l.errorf("pose for unknown node %d", id)
		}
		var v [6]float32
		if err := l.floats(1, v[:]); err != nil {
			return err
		}
		b := &s.Skeleton.Bones[id]
		b.Translation = mgl32.Vec3{v[0], v[1], v[2]}
		b.Euler = mgl32.Vec3{v[3], v[4], v[5]}
		b.Rotation = utils.EulerToQuat(b.Euler)
	}
}

func parseVertex(l *line) (v SMDVertex, err error) {
	if v.Bone, err = l.int(0); err != nil {
		return v, err
	}
	var f [8]float32
	if err := l.floats(1, f[:]); err != nil {
		return v, err
	}
	v.Position = mgl32.Vec3{f[0], f[1], f[2]}
	v.Normal = mgl32.Vec3{f[3], f[4], f[5]}
	v.UV = mgl32.Vec2{f[6], f[7]}
	if len(l.tokens) > 9 {
		count, err := l.int(9)
		if err != nil {
			return v, err
		}
		for i := 0; i < count; i++ {
			var link Link
			if link.Bone, err = l.int(10 + i*2); err != nil {
				return v, err
			}
			if link.Weight, err = l.float(11 + i*2); err != nil {
				return v, err
			}
			v.Links = append(v.Links, link)
		}
	}
	return v, nil
}

func parseTriangles(c *cursor, s *SMD) error {
	for {
		l, err := c.next()
		if err != nil {
			return errors.Wrap(err, "triangles")
		}
		if l.keyword() == "end" {
			return nil
		}
		tri := SMDTriangle{Material: l.raw}
		for k := range tri.Vertices {
			vl, err := c.next()
			if err != nil {
				return errors.Wrapf(err, "triangle %q", tri.Material)
			}
			if tri.Vertices[k], err = parseVertex(vl); err != nil {
				return err
			}
		}
		s.Triangles = append(s.Triangles, tri)
	}
}

func ParseSMD(text []byte) (*SMD, error) {
	lines, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	c := &cursor{lines: lines}
	s := &SMD{}
	for !c.eof() {
		l, _ := c.next()
		if tok, _ := l.str(0); tok == "version" {
			if s.Version, err = l.int(1); err != nil {
				return nil, err
			}
			continue
		}
		switch l.keyword() {
		case "nodes":
			err = parseNodes(c, s)
		case "skeleton":
			err = parsePose(c, s)
		case "triangles":
			err = parseTriangles(c, s)
		default:
			err = l.errorf("unexpected section")
		}
		if err != nil {
			return nil, errors.Wrap(err, "Failed to parse smd")
		}
	}
	if s.Skeleton == nil {
		s.Skeleton = &skeleton.Skeleton{}
	}
	return s, nil
}
