package mesh

import (
	"fmt"
	"io"
)

// ExportObj writes all submeshes as objects of one wavefront file.
func ExportObj(_w io.Writer, submeshes []*Submesh) error {
	var err error
	w := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(_w, format+"\n", args...)
		}
	}

	iV, iT, iN := 1, 1, 1
	for _, sm := range submeshes {
		w("o %s", sm.Name)
		w("usemtl %s", sm.Material)
		for _, p := range sm.Positions {
			w("v %f %f %f", p[0], p[1], p[2])
		}
		for _, uv := range sm.UVs {
			w("vt %f %f", uv[0], 1-uv[1])
		}
		for _, n := range sm.Normals {
			w("vn %f %f %f", n[0], n[1], n[2])
		}

		haveUV := sm.UVs != nil
		haveNorm := sm.Normals != nil
		for i := 0; i+2 < len(sm.Indexes); i += 3 {
			f := sm.Indexes[i : i+3]
			switch {
			case haveNorm && haveUV:
				w("f %d/%d/%d %d/%d/%d %d/%d/%d",
					iV+f[0], iT+f[0], iN+f[0],
					iV+f[1], iT+f[1], iN+f[1],
					iV+f[2], iT+f[2], iN+f[2])
			case haveNorm:
				w("f %d//%d %d//%d %d//%d",
					iV+f[0], iN+f[0],
					iV+f[1], iN+f[1],
					iV+f[2], iN+f[2])
			case haveUV:
				w("f %d/%d %d/%d %d/%d",
					iV+f[0], iT+f[0],
					iV+f[1], iT+f[1],
					iV+f[2], iT+f[2])
			default:
				w("f %d %d %d", iV+f[0], iV+f[1], iV+f[2])
			}
		}

		iV += len(sm.Positions)
		iT += len(sm.UVs)
		iN += len(sm.Normals)
	}
	return err
}
