// Package revlog implements the block-deduplicated, append-only,
// content-addressed version store for a single MDA file's annotation
// payload (spec §4.3, §4.4). Every exported operation here is a pure
// function over in-memory state; no I/O happens in this package, matching
// spec §4.3's "all are pure functions over in-memory state (no I/O)".
package revlog

import (
	"github.com/go-mda/mda/pkg/block"
	"github.com/go-mda/mda/pkg/hash"
)

// DataBlock is an alias of block.DataBlock, so call sites can read
// Entry.Blocks []DataBlock the way spec §3 describes it without importing
// both packages under different names.
type DataBlock = block.DataBlock

// Entry is a single revision: the new blocks it contributes to the shared
// pool, and the index that recovers its full payload from the cumulative
// pool (spec §3).
type Entry struct {
	ID     uint64
	Index  []uint64
	Blocks []DataBlock
}

// Header is the fixed-size metadata record for one revision (spec §3,
// called RevlogHeader there; named Header here since it only ever appears
// qualified as revlog.Header at call sites).
type Header struct {
	Rev     uint64
	Offset  uint64
	Length  uint32
	BaseRev int32
	LinkRev int32
	P1Rev   hash.ID
	P2Rev   hash.ID
	NodeID  hash.ID
}
