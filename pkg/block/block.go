// Package block implements the deterministic, fixed-size partition of a
// byte buffer into numbered blocks (spec §4.1). It has no knowledge of
// revisions, pools, or deduplication — those live in pkg/revlog.
package block

// DefaultSize is the historical BLOCK_SIZE from the original implementation.
// Spec §9 item 2 flags it as a placeholder that production deployments
// should raise (>=4096); it is kept as the zero-value default so archives
// generated without an explicit option stay byte-compatible with the
// original tool's output.
const DefaultSize = 10

// DataBlock is a single numbered chunk of a revlog payload (spec §3).
// Number is assigned by the pool at insertion time, not by Split; a fresh
// Split always starts numbering at 0, matching Entry.init's behavior.
type DataBlock struct {
	Number uint64
	Data   []byte
}

// Equal reports whether two blocks carry the same content, the equivalence
// relation spec §3 defines over DataBlock (Number is irrelevant to it).
func (b DataBlock) Equal(other DataBlock) bool {
	if len(b.Data) != len(other.Data) {
		return false
	}
	for i := range b.Data {
		if b.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// Split partitions data into blocks of at most size bytes, numbered
// 0, 1, 2, ... in order. It returns both the block sequence and its index
// (the sequence of block numbers), matching spec §4.1's return shape
// exactly: for a fresh split the index is always [0, 1, ..., n-1].
//
// An empty buffer yields zero blocks and an empty index, not a single
// empty block (spec §4.3 edge case: init("") has empty index/blocks).
func Split(data []byte, size int) ([]DataBlock, []uint64) {
	if size <= 0 {
		size = DefaultSize
	}
	var blocks []DataBlock
	var index []uint64
	var number uint64
	for pos := 0; pos < len(data); {
		end := pos + size
		if end > len(data) {
			end = len(data)
		}
		chunk := make([]byte, end-pos)
		copy(chunk, data[pos:end])
		blocks = append(blocks, DataBlock{Number: number, Data: chunk})
		index = append(index, number)
		pos = end
		number++
	}
	return blocks, index
}
