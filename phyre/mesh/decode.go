package mesh

import (
	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/utils"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type DecodeOptions struct {
	Workers int
	Strip   StripOptions
	Log     *utils.Logger
}

type segmentJob struct {
	index  int
	record SegmentRecord
	blocks []DataBlockRecord
	remap  []uint16
}

type segmentResult struct {
	submesh  *Submesh
	warnings []error
	err      error
}

// Decode reconstructs every PMeshSegment. Missing PMesh, PMeshSegment or
// PDataBlock classes are fatal; everything wrong inside a single segment
// is reported and the segment is skipped.
func Decode(idx *phyre.Index, opts DecodeOptions) ([]*Submesh, *phyre.Report, error) {
	report := phyre.NewReport()
	log := opts.Log

	skin, err := ReadSkin(idx)
	if err != nil {
		return nil, report, err
	}
	segments, err := ReadSegments(idx)
	if err != nil {
		return nil, report, err
	}
	blocks, err := ReadDataBlocks(idx)
	if err != nil {
		return nil, report, err
	}
	remap, err := ReadBoneRemap(idx)
	if err != nil {
		report.Warn(err)
	}

	if declared := skin.SegmentsCount(); declared != len(segments) {
		report.Warn(phyre.NewError(phyre.TruncatedPayload, "meshes declare %d segments, found %d", declared, len(segments)))
	}

	// block and remap cursors run across all segments, so slice them up front
	jobs := make([]segmentJob, len(segments))
	blockCursor, remapCursor := 0, 0
	for i, seg := range segments {
		jobs[i] = segmentJob{index: i, record: seg}
		if n := seg.Blocks(); blockCursor+n <= len(blocks) {
			jobs[i].blocks = blocks[blockCursor : blockCursor+n]
			blockCursor += n
		} else {
			blockCursor = len(blocks)
		}
		if n := seg.Remaps(); remapCursor+n <= len(remap) {
			jobs[i].remap = remap[remapCursor : remapCursor+n]
			remapCursor += n
		} else {
			remapCursor = len(remap)
		}
	}

	results := make([]segmentResult, len(jobs))
	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range jobs {
			i := i
			g.Go(func() error {
				results[i] = decodeSegment(idx, &jobs[i], opts.Strip, nil)
				return nil
			})
		}
		g.Wait()
	} else {
		for i := range jobs {
			log.Printf("segment %d: %+v", i, jobs[i].record)
			results[i] = decodeSegment(idx, &jobs[i], opts.Strip, log.Sub())
		}
	}

	submeshes := make([]*Submesh, 0, len(results))
	for i, res := range results {
		for _, w := range res.warnings {
			report.Warn(w)
		}
		if res.err != nil {
			report.Warn(res.err)
			report.AddSkipped(phyre.ClassPMeshSegment, 1)
			log.Printf("segment %d skipped: %v", i, res.err)
			continue
		}
		report.AddDecoded(phyre.ClassPMeshSegment, 1)
		report.AddDecoded("triangles", res.submesh.TrianglesCount())
		submeshes = append(submeshes, res.submesh)
	}
	return submeshes, report, nil
}

func segmentTruncated(segment int, what string, bs *utils.BufStack) error {
	e := phyre.NewSegmentError(phyre.TruncatedPayload, segment, "%s", what)
	e.Offset = bs.AbsoluteOffset()
	return e.WithCause(bs.Err())
}

func readVec3s(bs *utils.BufStack, count int) []Position {
	if bs.Err() != nil {
		return nil
	}
	out := make([]Position, count)
	for i := range out {
		out[i] = utils.SanitizeVec3(Position{bs.ReadLF(), bs.ReadLF(), bs.ReadLF()})
	}
	return out
}

func decodeSegment(idx *phyre.Index, job *segmentJob, stripOpts StripOptions, log *utils.Logger) (res segmentResult) {
	seg := &job.record
	si := job.index
	if len(job.blocks) == 0 {
		res.err = phyre.NewSegmentError(phyre.TruncatedPayload, si, "no data blocks left for segment")
		return res
	}

	vertexRegion := int(idx.Header.VertexRegionOffset)
	stream := func(kind string, block DataBlockRecord, count, stride int) *utils.BufStack {
		return idx.Shared(kind, vertexRegion+int(block.DataOffset), count*stride)
	}

	sm := &Submesh{
		Name:     SubmeshName(si),
		Material: MaterialName(si),
	}

	vertexCount := int(job.blocks[0].ElementCount)
	if vertexCount <= 0 {
		res.err = phyre.NewSegmentError(phyre.DegenerateGeometry, si, "segment has %d vertices", vertexCount)
		return res
	}
	bs := stream("positions", job.blocks[0], vertexCount, 12)
	sm.Positions = readVec3s(bs, vertexCount)
	if bs.Err() != nil {
		res.err = segmentTruncated(si, "positions", bs)
		return res
	}
	log.Printf("%d positions at 0x%x", vertexCount, bs.AbsoluteOffset())

	var weights [][4]float32
	var skinIndices [][4]uint8
	if seg.Streams() > 1 {
		bs := stream("normals", job.blocks[1], vertexCount, 12)
		if normals := readVec3s(bs, vertexCount); bs.Err() == nil {
			sm.Normals = normals
		} else {
			res.warnings = append(res.warnings, segmentTruncated(si, "normals", bs))
		}

		for _, block := range job.blocks[2:] {
			stride, known := StreamStride[block.Kind]
			if !known {
				res.warnings = append(res.warnings, phyre.NewSegmentError(phyre.TruncatedPayload, si, "unknown stream kind %d", block.Kind))
				continue
			}
			bs := stream("stream", block, vertexCount, stride)
			if bs.Err() != nil {
				res.warnings = append(res.warnings, segmentTruncated(si, "stream", bs))
				continue
			}
			switch block.Kind {
			case StreamUV:
				if sm.UVs != nil {
					continue
				}
				uvs := make([]UV, vertexCount)
				for i := range uvs {
					uvs[i] = utils.SanitizeVec2(UV{bs.ReadLF(), bs.ReadLF()})
				}
				if bs.Err() == nil {
					sm.UVs = uvs
				}
			case StreamSkinWeights, StreamPackedSkinWeights:
				weights = make([][4]float32, vertexCount)
				for i := range weights {
					for k := range weights[i] {
						if block.Kind == StreamSkinWeights {
							weights[i][k] = utils.Sanitize(bs.ReadLF())
						} else {
							weights[i][k] = utils.DecompressBoneWeight(bs.ReadByte())
						}
					}
				}
			case StreamSkinIndices:
				skinIndices = make([][4]uint8, vertexCount)
				for i := range skinIndices {
					copy(skinIndices[i][:], bs.Read(4))
				}
			default:
				res.warnings = append(res.warnings, phyre.NewSegmentError(phyre.TruncatedPayload, si, "stream kind %d in extra block", block.Kind))
			}
		}
	}

	indexCount := int(seg.IndexCount)
	if indexCount < 0 {
		res.err = phyre.NewSegmentError(phyre.TruncatedPayload, si, "index count %d", indexCount)
		return res
	}
	ibs := idx.Shared("indices", int(seg.IndexOffset), indexCount*2)
	if ibs.Err() != nil {
		res.err = segmentTruncated(si, "indices", ibs)
		return res
	}
	raw := make([]int, indexCount)
	for i := range raw {
		raw[i] = int(ibs.ReadLU16())
	}

	if seg.PrimitiveType == PrimitiveTriangleList {
		sm.Indexes = TriangleListFromList(raw)
	} else {
		sm.Indexes = GenerateTriangleList(raw, stripOpts)
	}
	for _, index := range sm.Indexes {
		if index >= vertexCount {
			res.err = phyre.NewSegmentError(phyre.TruncatedPayload, si, "index %d out of %d vertices", index, vertexCount)
			return res
		}
	}
	if len(sm.Indexes) == 0 {
		res.err = phyre.NewSegmentError(phyre.DegenerateGeometry, si, "all %d triangles are degenerate", indexCount)
		return res
	}
	log.Printf("%d indices -> %d triangles", indexCount, sm.TrianglesCount())

	if weights != nil && skinIndices != nil {
		if len(job.remap) == 0 {
			res.warnings = append(res.warnings, phyre.NewSegmentError(phyre.TruncatedPayload, si, "skin streams without bone remap"))
		} else {
			sm.BoneRemap = job.remap
			sm.Weights = weights
			sm.Joints = make([][4]uint16, vertexCount)
			for v := range weights {
				for k := 0; k < 4; k++ {
					local := int(skinIndices[v][k])
					if local < len(job.remap) {
						sm.Joints[v][k] = job.remap[local]
					} else if sm.Weights[v][k] != 0 {
						res.warnings = append(res.warnings, errors.Wrapf(
							phyre.NewSegmentError(phyre.TruncatedPayload, si, "bone channel %d of %d", local, len(job.remap)),
							"vertex %d", v))
						sm.Weights[v][k] = 0
					}
				}
			}
		}
	}

	res.submesh = sm
	return res
}
