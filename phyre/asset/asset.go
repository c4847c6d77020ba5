package asset

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/phyre/packer"
	"github.com/mogaika/phyre_browser/phyre/skeleton"
	"github.com/mogaika/phyre_browser/textfmt"
	"github.com/mogaika/phyre_browser/utils"
	"github.com/mogaika/phyre_browser/utils/gltfutils"
)

const (
	partMesh     = "mesh"
	partSkeleton = "skeleton"
)

type Options struct {
	Workers int
	Strip   mesh.StripOptions
	Log     *utils.Logger
}

// Asset is everything decoded from one container. Submeshes or Skeleton
// stay empty when their part failed; the reason is in Report.
type Asset struct {
	Index     *phyre.Index
	Submeshes []*mesh.Submesh
	Skeleton  *skeleton.Skeleton
	Report    *phyre.Report
}

// Load opens the container and decodes geometry and skeleton independently.
// Only an unreadable index is fatal.
func Load(b []byte, opts Options) (*Asset, error) {
	log := opts.Log
	idx, err := phyre.Open(b, log.Sub())
	if err != nil {
		return nil, err
	}
	a := &Asset{
		Index:    idx,
		Report:   phyre.NewReport(),
		Skeleton: &skeleton.Skeleton{},
	}
	for _, w := range idx.Warnings {
		a.Report.Warn(w)
	}

	log.Printf("decoding geometry")
	submeshes, meshReport, err := mesh.Decode(idx, mesh.DecodeOptions{
		Workers: opts.Workers,
		Strip:   opts.Strip,
		Log:     log.Sub(),
	})
	a.Report.Merge(meshReport)
	if err != nil {
		a.Report.Warn(errors.Wrap(err, "geometry"))
		a.Report.AddSkipped(partMesh, 1)
	} else {
		a.Submeshes = submeshes
	}

	log.Printf("decoding skeleton")
	skel, skelReport, err := skeleton.Decode(idx, log.Sub())
	a.Report.Merge(skelReport)
	if err != nil {
		a.Report.Warn(errors.Wrap(err, "skeleton"))
		a.Report.AddSkipped(partSkeleton, 1)
	} else {
		a.Skeleton = skel
	}
	return a, nil
}

// Pack parses the text pair and encodes a container from it.
func Pack(smdText, meshText []byte, log *utils.Logger) ([]byte, error) {
	smd, err := textfmt.ParseSMD(smdText)
	if err != nil {
		return nil, err
	}
	m, err := textfmt.ParseMeshASCII(meshText)
	if err != nil {
		return nil, err
	}
	submeshes, skel, err := textfmt.Assemble(smd, m)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to assemble")
	}
	log.Printf("assembled %d submeshes, %d bones", len(submeshes), len(skel.Bones))
	return packer.Encode(submeshes, skel, log.Sub())
}

func (a *Asset) WriteSMD(w io.Writer) error {
	return textfmt.WriteSMD(w, a.Skeleton, a.Submeshes)
}

func (a *Asset) WriteMeshASCII(w io.Writer) error {
	return textfmt.WriteMeshASCII(w, a.Submeshes)
}

func (a *Asset) WriteObj(w io.Writer) error {
	return mesh.ExportObj(w, a.Submeshes)
}

func (a *Asset) WriteGLB(w io.Writer) error {
	doc := gltfutils.NewDocument()
	skin := a.Skeleton.ExportGLTF(doc)
	mesh.ExportGLTF(doc, a.Submeshes, skin)
	return gltfutils.ExportBinary(w, doc)
}
