package revlog

import (
	"encoding/binary"
	"io"

	"github.com/go-mda/mda/pkg/hash"
	"github.com/go-mda/mda/pkg/mdaerr"
)

// HeaderSize is the fixed on-disk size of an encoded Header: two u64s, three
// 32-bit integers, and three 20-byte arrays (88 bytes). Spec §4.4/§6 delegate the exact encoding
// to the implementation as long as it is stable and self-delimiting; this
// module picks little-endian, two's-complement, fixed-width fields for
// everything but the variable-length Entry that follows it (see
// EncodeEntry). The reference bincode encoding used by the original tool
// comes out to a different byte count for the same fields; that count is
// an artifact of bincode's own framing and isn't part of the contract this
// implementation documents.
const HeaderSize = 8 + 8 + 4 + 4 + 4 + hash.Size + hash.Size + hash.Size

// EncodeHeader serializes a Header into its fixed HeaderSize-byte form.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = binary.LittleEndian.AppendUint64(buf, h.Rev)
	buf = binary.LittleEndian.AppendUint64(buf, h.Offset)
	buf = binary.LittleEndian.AppendUint32(buf, h.Length)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.BaseRev))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.LinkRev))
	buf = append(buf, h.P1Rev[:]...)
	buf = append(buf, h.P2Rev[:]...)
	buf = append(buf, h.NodeID[:]...)
	return buf
}

// DecodeHeader reads exactly HeaderSize bytes from r and parses a Header.
// A short read is reported as a CorruptArchive error, per spec §7: "the
// reader never advances past an unparsable header."
func DecodeHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			return Header{}, err // callers use this to detect end-of-region
		}
		return Header{}, mdaerr.NewCorruptArchive("short revlog header read: %v", err)
	}

	var h Header
	h.Rev = binary.LittleEndian.Uint64(buf[0:8])
	h.Offset = binary.LittleEndian.Uint64(buf[8:16])
	h.Length = binary.LittleEndian.Uint32(buf[16:20])
	h.BaseRev = int32(binary.LittleEndian.Uint32(buf[20:24]))
	h.LinkRev = int32(binary.LittleEndian.Uint32(buf[24:28]))
	copy(h.P1Rev[:], buf[28:48])
	copy(h.P2Rev[:], buf[48:68])
	copy(h.NodeID[:], buf[68:88])
	return h, nil
}

// EncodeEntry serializes an Entry as: id (u64), index (u64 count + u64s),
// blocks (u64 count + per-block [u64 number, u64 data-length, data bytes]).
// Every sequence gets the fixed 64-bit count prefix spec §6 mandates for
// Vec<T>.
func EncodeEntry(e Entry) []byte {
	size := 8 + 8 + 8*len(e.Index) + 8
	for _, b := range e.Blocks {
		size += 8 + 8 + len(b.Data)
	}
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint64(buf, e.ID)

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(e.Index)))
	for _, n := range e.Index {
		buf = binary.LittleEndian.AppendUint64(buf, n)
	}

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(e.Blocks)))
	for _, b := range e.Blocks {
		buf = binary.LittleEndian.AppendUint64(buf, b.Number)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(b.Data)))
		buf = append(buf, b.Data...)
	}
	return buf
}

// DecodeEntry parses an Entry out of exactly len(b) bytes. Callers (the mda
// package) slice entries out of the packed entries region using each
// paired header's Length field before calling this, per spec §4.4.
func DecodeEntry(b []byte) (Entry, error) {
	d := decoder{buf: b}

	id, err := d.u64()
	if err != nil {
		return Entry{}, err
	}

	indexLen, err := d.u64()
	if err != nil {
		return Entry{}, err
	}
	index := make([]uint64, indexLen)
	for i := range index {
		v, err := d.u64()
		if err != nil {
			return Entry{}, err
		}
		index[i] = v
	}

	blocksLen, err := d.u64()
	if err != nil {
		return Entry{}, err
	}
	blocks := make([]DataBlock, blocksLen)
	for i := range blocks {
		num, err := d.u64()
		if err != nil {
			return Entry{}, err
		}
		dataLen, err := d.u64()
		if err != nil {
			return Entry{}, err
		}
		data, err := d.bytes(int(dataLen))
		if err != nil {
			return Entry{}, err
		}
		blocks[i] = DataBlock{Number: num, Data: data}
	}

	if !d.exhausted() {
		return Entry{}, mdaerr.NewCorruptArchive("entry has %d trailing bytes", len(d.buf)-d.off)
	}

	return Entry{ID: id, Index: index, Blocks: blocks}, nil
}

// decoder is a bounds-checked cursor over an in-memory byte slice, used to
// give DecodeEntry CorruptArchive errors instead of panics on truncated
// input.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) u64() (uint64, error) {
	if len(d.buf)-d.off < 8 {
		return 0, mdaerr.NewCorruptArchive("entry truncated reading u64 at offset %d", d.off)
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off : d.off+8])
	d.off += 8
	return v, nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.off < n {
		return nil, mdaerr.NewCorruptArchive("entry truncated reading %d bytes at offset %d", n, d.off)
	}
	out := make([]byte, n)
	copy(out, d.buf[d.off:d.off+n])
	d.off += n
	return out, nil
}

func (d *decoder) exhausted() bool {
	return d.off == len(d.buf)
}
