package softmax

import "github.com/071975/NeMo/internal/tensor"

const (
	// MaxElements is the maximum supported row length (key_len).
	// Scratch buffers are sized for this bound at compile time; the
	// dispatch layer enforces it before any kernel touches memory.
	MaxElements = 4096

	// GroupWidth is the number of lanes cooperating on one row.
	GroupWidth = 256

	// warpWidth is the sub-group size: the widest lane set reduced by a
	// single butterfly without touching the partial buffer.
	warpWidth = 32

	// partialSlots is the capacity of the partial-reduction buffer: one
	// slot per sub-group per chunk, enough for a full 4096-element row
	// (4096/256 chunks x 256/32 sub-groups = 128).
	partialSlots = MaxElements / warpWidth

	warpsPerGroup = GroupWidth / warpWidth
)

// groupScratch is the working memory owned by one work-group while it
// processes one row. row holds the scaled/masked values, later
// overwritten in place with exponentials; partials collects one value
// per sub-group between the two reduction levels; lanes is the vector a
// chunk of the row is staged into before the sub-group butterflies run.
//
// A worker allocates one groupScratch per launch and reuses it for every
// row in its range, so the per-row cost is allocation free.
type groupScratch[A tensor.Float] struct {
	row      [MaxElements]A
	partials [partialSlots]A
	lanes    [GroupWidth]A
}

func newGroupScratch[A tensor.Float]() *groupScratch[A] {
	return &groupScratch[A]{}
}

// reduce computes op over row[0:n] with the two-level tree: each
// 256-lane chunk is split into 32-lane sub-groups, every sub-group
// butterfly-reduces its lanes and parks the partial, then the partial
// buffer itself is reduced the same way. identity pads lanes past the
// end of the row and initializes the partial buffer, mirroring the
// reference kernel's sentinel fill.
func (s *groupScratch[A]) reduce(n int, op func(A, A) A, identity A) A {
	for i := range s.partials {
		s.partials[i] = identity
	}

	numChunks := (n + GroupWidth - 1) / GroupWidth
	for chunk := 0; chunk < numChunks; chunk++ {
		base := chunk * GroupWidth
		for lane := 0; lane < GroupWidth; lane++ {
			if base+lane < n {
				s.lanes[lane] = s.row[base+lane]
			} else {
				s.lanes[lane] = identity
			}
		}
		for warp := 0; warp < warpsPerGroup; warp++ {
			v := laneReduce(s.lanes[warp*warpWidth:(warp+1)*warpWidth], op)
			s.partials[warp+warpsPerGroup*chunk] = v
		}
	}

	// Second level: the partial buffer is itself a few sub-groups wide.
	out := identity
	for warp := 0; warp < partialSlots/warpWidth; warp++ {
		v := laneReduce(s.partials[warp*warpWidth:(warp+1)*warpWidth], op)
		out = op(out, v)
	}
	return out
}
