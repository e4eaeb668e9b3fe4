package revlog

import (
	logging "github.com/ipfs/go-log/v2"

	"github.com/go-mda/mda/pkg/block"
	"github.com/go-mda/mda/pkg/hash"
	"github.com/go-mda/mda/pkg/mdaerr"
)

var log = logging.Logger("revlog")

// Init produces the first revision of a revlog from content (spec §4.3
// init). An empty buffer yields a revision with an empty index and no
// blocks, matching the spec's documented edge case.
func Init(content []byte, opts ...Option) ([]Header, []Entry, error) {
	o := resolve(opts)

	blocks, index := block.Split(content, o.blockSize)
	entry := Entry{ID: 0, Index: index, Blocks: blocks}

	nodeid, err := hash.NodeID(hash.Null, hash.Null, content, o.hashAlg)
	if err != nil {
		return nil, nil, err
	}

	h := Header{
		Rev:     0,
		Offset:  0,
		Length:  uint32(len(EncodeEntry(entry))),
		BaseRev: 0,
		LinkRev: 0,
		P1Rev:   hash.Null,
		P2Rev:   hash.Null,
		NodeID:  nodeid,
	}

	log.Debugw("revlog init", "blocks", len(blocks), "contentLen", len(content))
	return []Header{h}, []Entry{entry}, nil
}

// Add appends a revision whose payload is content, deduplicating against
// the cumulative block pool of every prior entry (spec §4.3 add).
func Add(content []byte, headers []Header, entries []Entry, opts ...Option) ([]Header, []Entry, error) {
	o := resolve(opts)

	if len(entries) == 0 || len(headers) == 0 {
		return nil, nil, mdaerr.NewInvariantViolated("add called against an empty revlog")
	}

	lastEntry := entries[len(entries)-1]
	lastHeader := headers[len(headers)-1]
	lastID := lastEntry.ID
	newID := lastID + 1

	// Spec §4.3 step 8 / §9 item 1: the source reuses the previous header's
	// p1rev for every successor after the very first, instead of chaining
	// to the previous header's nodeid. Reproduced verbatim unless
	// WithStrictChaining asks for the corrected rule.
	p1 := lastHeader.P1Rev
	if o.strictChaining || lastID == 0 {
		p1 = lastHeader.NodeID
	}

	currentBlocks, _ := block.Split(content, o.blockSize)
	pool := poolUpTo(entries, lastID)

	var freshRaw []DataBlock
	for _, cb := range currentBlocks {
		if !poolContainsData(pool, cb) {
			freshRaw = append(freshRaw, cb)
		}
	}

	nextNumber := uint64(0)
	if len(pool) > 0 {
		nextNumber = pool[len(pool)-1].Number + 1
	}
	fresh := make([]DataBlock, len(freshRaw))
	for i, b := range freshRaw {
		fresh[i] = DataBlock{Number: nextNumber, Data: b.Data}
		nextNumber++
	}

	extendedPool := make([]DataBlock, 0, len(pool)+len(fresh))
	extendedPool = append(extendedPool, pool...)
	extendedPool = append(extendedPool, fresh...)

	index := make([]uint64, len(currentBlocks))
	for i, cb := range currentBlocks {
		num, ok := poolFindByData(extendedPool, cb)
		if !ok {
			return nil, nil, mdaerr.NewInvariantViolated("no pool block matches split block %d of revision %d", i, newID)
		}
		index[i] = num
	}

	entry := Entry{ID: newID, Index: index, Blocks: fresh}

	nodeid, err := hash.NodeID(hash.Null, hash.Null, content, o.hashAlg)
	if err != nil {
		return nil, nil, err
	}

	newHeader := Header{
		Rev:     newID,
		Offset:  0,
		Length:  uint32(len(EncodeEntry(entry))),
		BaseRev: 0,
		LinkRev: int32(lastID),
		P1Rev:   p1,
		P2Rev:   hash.Null,
		NodeID:  nodeid,
	}

	newEntries := append(append([]Entry{}, entries...), entry)
	newHeaders := append(append([]Header{}, headers...), newHeader)

	log.Debugw("revlog add", "rev", newID, "newBlocks", len(fresh))
	return newHeaders, newEntries, nil
}

// Reconstruct recovers the full payload of revID by resolving its index
// against the cumulative block pool of entries[0..=revID] (spec §4.3
// reconstruct). revID == -1 means the latest revision.
func Reconstruct(revID int64, entries []Entry) ([]byte, error) {
	if revID == -1 {
		if len(entries) == 0 {
			return nil, &mdaerr.RevisionNotFoundError{Rev: revID}
		}
		revID = int64(len(entries) - 1)
	}
	if revID < 0 || revID >= int64(len(entries)) {
		return nil, &mdaerr.RevisionNotFoundError{Rev: revID}
	}

	entry := entries[revID]
	pool := poolUpTo(entries, uint64(revID))

	var out []byte
	for _, num := range entry.Index {
		data, ok := poolFindByNumber(pool, num)
		if !ok {
			return nil, mdaerr.NewInvariantViolated("revision %d index references missing block %d", revID, num)
		}
		out = append(out, data...)
	}
	return out, nil
}

// LatestID returns the id of the most recent entry, or false if entries is
// empty.
func LatestID(entries []Entry) (uint64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	return entries[len(entries)-1].ID, true
}

// poolUpTo returns the cumulative, ordered union of entries[i].Blocks for
// i <= id (spec §3's "Pool"). It is recomputed on demand rather than
// cached, per spec §9's "Shared block pool" note.
func poolUpTo(entries []Entry, id uint64) []DataBlock {
	var pool []DataBlock
	for _, e := range entries {
		if e.ID <= id {
			pool = append(pool, e.Blocks...)
		}
	}
	return pool
}

func poolContainsData(pool []DataBlock, b DataBlock) bool {
	_, ok := poolFindByData(pool, b)
	return ok
}

func poolFindByData(pool []DataBlock, b DataBlock) (uint64, bool) {
	for _, p := range pool {
		if p.Equal(b) {
			return p.Number, true
		}
	}
	return 0, false
}

func poolFindByNumber(pool []DataBlock, number uint64) ([]byte, bool) {
	for _, p := range pool {
		if p.Number == number {
			return p.Data, true
		}
	}
	return nil, false
}
