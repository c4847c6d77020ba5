package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/phyre/mesh"
	"github.com/mogaika/phyre_browser/utils"
)

// Decode reads the bone hierarchy from PMesh, the root translation from
// PNode and the bone transforms from PMatrix4.
func Decode(idx *phyre.Index, log *utils.Logger) (*Skeleton, *phyre.Report, error) {
	report := phyre.NewReport()

	skin, err := mesh.ReadSkin(idx)
	if err != nil {
		return nil, report, err
	}
	node, err := idx.First(phyre.ClassPNode)
	if err != nil {
		return nil, report, err
	}
	matrices, err := idx.First(phyre.ClassPMatrix4)
	if err != nil {
		return nil, report, err
	}

	nbs := idx.Data(node)
	root := utils.SanitizeVec3(mgl32.Vec3{nbs.ReadLF(), nbs.ReadLF(), nbs.ReadLF()})
	if nbs.Err() != nil {
		report.Warn((&phyre.FormatError{Kind: phyre.TruncatedPayload, Class: phyre.ClassPNode, Segment: -1}).WithCause(nbs.Err()))
		root = mgl32.Vec3{}
	}
	log.Printf("root translation %v", root)

	boneCount := skin.BonesCount()
	mbs := idx.Data(matrices)
	mbs.Skip(MatrixSize * skin.MatrixSkip())

	s := &Skeleton{Bones: make([]Bone, 0, boneCount)}
	for id := 0; id < boneCount; id++ {
		if !mbs.Fits(MatrixSize) {
			e := phyre.NewError(phyre.TruncatedPayload, "matrix of bone %d of %d", id, boneCount)
			e.Class = phyre.ClassPMatrix4
			e.Offset = mbs.AbsolutePos()
			report.Warn(e)
			report.AddSkipped("bones", boneCount-id)
			break
		}

		var rotation [3][3]float64
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				rotation[r][c] = float64(utils.Sanitize(mbs.ReadLF()))
			}
			mbs.Skip(4)
		}
		translation := utils.SanitizeVec3(mgl32.Vec3{mbs.ReadLF(), mbs.ReadLF(), mbs.ReadLF()})
		mbs.Skip(4)
		if id == 0 {
			translation = translation.Add(root)
		}

		parent := int(skin.Parents[id])
		if parent < -1 || parent >= boneCount || parent == id {
			report.Warn(phyre.NewError(phyre.TruncatedPayload, "bone %d has parent %d", id, parent))
			parent = -1
		}

		q := utils.MatrixToQuat(rotation)
		bone := Bone{
			Id:          id,
			ParentId:    parent,
			Name:        BoneName(id),
			Translation: translation,
			Rotation:    q,
			Euler:       utils.QuatToEuler(q),
		}
		log.Printf("bone %d %q parent %d t %v euler %v", id, bone.Name, parent, translation, bone.Euler)
		s.Bones = append(s.Bones, bone)
	}
	report.AddDecoded("bones", len(s.Bones))
	return s, report, nil
}
