package mda

import (
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/exp/mmap"

	ioutil "github.com/go-mda/mda/internal/ioutil"
	"github.com/go-mda/mda/pkg/mdaerr"
	"github.com/go-mda/mda/pkg/revlog"
)

var log = logging.Logger("mda")

// Write serializes an entire MDA file: index (with placeholder offsets),
// header, training-data tag+payload, revlog headers region, revlog entries
// region, then rewrites the index with true offsets (spec §4.5 write).
//
// The file is written to a sibling temporary path and renamed into place on
// success, so a crash never leaves a half-written file visible at path
// (spec §4.5 "never leave a half-written file in the caller-visible path";
// spec §5 "SHOULD write to a sibling temporary file and atomically
// rename").
func Write(path string, header Header, training TrainingData, headers []revlog.Header, entries []revlog.Entry) (err error) {
	if len(headers) != len(entries) {
		return mdaerr.NewInvariantViolated("headers/entries length mismatch: %d != %d", len(headers), len(entries))
	}
	for i := range headers {
		if headers[i].Rev != uint64(i) || entries[i].ID != uint64(i) {
			return mdaerr.NewInvariantViolated("revision %d out of position (header.rev=%d entry.id=%d)", i, headers[i].Rev, entries[i].ID)
		}
	}

	tmpPath := path + ".tmp"
	f, ferr := os.Create(tmpPath)
	if ferr != nil {
		return mdaerr.WrapIO("create temp file", ferr)
	}
	defer func() {
		cerr := f.Close()
		if err != nil {
			os.Remove(tmpPath)
			return
		}
		if cerr != nil {
			err = mdaerr.WrapIO("close temp file", cerr)
			os.Remove(tmpPath)
			return
		}
		if rerr := os.Rename(tmpPath, path); rerr != nil {
			err = mdaerr.WrapIO("rename temp file into place", rerr)
		}
	}()

	cw := ioutil.NewCountingWriter(f)

	// Reserve space for the index; the real offsets are written last.
	if _, err = cw.Write(make([]byte, IndexSize)); err != nil {
		return mdaerr.WrapIO("write index placeholder", err)
	}

	headerOffset := uint64(cw.Position())
	if _, err = cw.Write(EncodeHeader(header)); err != nil {
		return mdaerr.WrapIO("write header", err)
	}

	trainDataOffset := uint64(cw.Position())
	if _, err = cw.Write(EncodeTrainingData(training)); err != nil {
		return mdaerr.WrapIO("write training data", err)
	}

	annoHeadersOffset := uint64(cw.Position())
	for _, h := range headers {
		if _, err = cw.Write(revlog.EncodeHeader(h)); err != nil {
			return mdaerr.WrapIO("write revlog header", err)
		}
	}

	annoEntriesOffset := uint64(cw.Position())
	for _, e := range entries {
		if _, err = cw.Write(revlog.EncodeEntry(e)); err != nil {
			return mdaerr.WrapIO("write revlog entry", err)
		}
	}

	idx := Index{
		HeaderOffset:      headerOffset,
		TrainDataOffset:   trainDataOffset,
		AnnoHeadersOffset: annoHeadersOffset,
		AnnoEntriesOffset: annoEntriesOffset,
	}
	if _, err = f.WriteAt(EncodeIndex(idx), 0); err != nil {
		return mdaerr.WrapIO("rewrite index", err)
	}

	log.Debugw("mda write", "path", path, "revisions", len(entries), "kind", training.Kind)
	return nil
}

// Generate builds a brand-new MDA file: the first revlog revision from
// initialAnno (via revlog.Init) and the given training data.
func Generate(path string, header Header, training TrainingData, initialAnno []byte, opts ...revlog.Option) error {
	headers, entries, err := revlog.Init(initialAnno, opts...)
	if err != nil {
		return err
	}
	return Write(path, header, training, headers, entries)
}

func openReader(path string) (*mmap.ReaderAt, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, mdaerr.WrapIO("open", err)
	}
	return r, nil
}

// ReadInfo decodes the index and container header (spec §4.5 read_info).
func ReadInfo(path string) (Index, Header, error) {
	r, err := openReader(path)
	if err != nil {
		return Index{}, Header{}, err
	}
	defer r.Close()

	idx, err := DecodeIndex(io.NewSectionReader(r, 0, int64(IndexSize)))
	if err != nil {
		return Index{}, Header{}, err
	}

	headerLen := int64(idx.TrainDataOffset) - int64(idx.HeaderOffset)
	if headerLen < 0 {
		return Index{}, Header{}, mdaerr.NewCorruptArchive("header region has negative length")
	}
	header, err := DecodeHeader(io.NewSectionReader(r, int64(idx.HeaderOffset), headerLen))
	if err != nil {
		return Index{}, Header{}, err
	}

	return idx, header, nil
}

// ExtractTraining decodes the training-data region, bounded by
// anno_headers_offset - train_data_offset per spec §9 item 4.
func ExtractTraining(path string) (TrainingData, error) {
	r, err := openReader(path)
	if err != nil {
		return TrainingData{}, err
	}
	defer r.Close()

	idx, err := DecodeIndex(io.NewSectionReader(r, 0, int64(IndexSize)))
	if err != nil {
		return TrainingData{}, err
	}

	regionLen := int64(idx.AnnoHeadersOffset) - int64(idx.TrainDataOffset)
	if regionLen < 1 {
		return TrainingData{}, mdaerr.NewCorruptArchive("training data region has non-positive length")
	}

	sr := io.NewSectionReader(r, int64(idx.TrainDataOffset), regionLen)
	return DecodeTrainingData(sr, regionLen-1)
}

// readAllRevlogHeaders decodes every RevlogHeader between
// anno_headers_offset and anno_entries_offset.
func readAllRevlogHeaders(r io.ReaderAt, idx Index) ([]revlog.Header, error) {
	regionLen := int64(idx.AnnoEntriesOffset) - int64(idx.AnnoHeadersOffset)
	if regionLen < 0 {
		return nil, mdaerr.NewCorruptArchive("revlog header region has negative length")
	}
	sr := io.NewSectionReader(r, int64(idx.AnnoHeadersOffset), regionLen)

	var headers []revlog.Header
	for {
		h, err := revlog.DecodeHeader(sr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// readRevlogEntries decodes entries[0:len(headers)] from the entries
// region, using each header's Length to size its entry (spec §4.4).
func readRevlogEntries(r io.ReaderAt, idx Index, totalSize int64, headers []revlog.Header) ([]revlog.Entry, error) {
	entriesLen := totalSize - int64(idx.AnnoEntriesOffset)
	if entriesLen < 0 {
		return nil, mdaerr.NewCorruptArchive("revlog entries region has negative length")
	}
	buf := make([]byte, entriesLen)
	sr := io.NewSectionReader(r, int64(idx.AnnoEntriesOffset), entriesLen)
	if _, err := io.ReadFull(sr, buf); err != nil {
		return nil, mdaerr.NewCorruptArchive("short revlog entries region read: %v", err)
	}

	entries := make([]revlog.Entry, len(headers))
	offset := int64(0)
	for i, h := range headers {
		end := offset + int64(h.Length)
		if end > int64(len(buf)) {
			return nil, mdaerr.NewCorruptArchive("entry %d length %d overruns entries region", i, h.Length)
		}
		entry, err := revlog.DecodeEntry(buf[offset:end])
		if err != nil {
			return nil, err
		}
		entries[i] = entry
		offset = end
	}
	return entries, nil
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, mdaerr.WrapIO("stat", err)
	}
	return fi.Size(), nil
}

// readRevlog loads the full revlog (every header and entry) from an MDA
// file. Shared by ReadAnno, ListRevisions, and UpdateAnno.
func readRevlog(path string) (Index, []revlog.Header, []revlog.Entry, error) {
	r, err := openReader(path)
	if err != nil {
		return Index{}, nil, nil, err
	}
	defer r.Close()

	idx, err := DecodeIndex(io.NewSectionReader(r, 0, int64(IndexSize)))
	if err != nil {
		return Index{}, nil, nil, err
	}

	headers, err := readAllRevlogHeaders(r, idx)
	if err != nil {
		return Index{}, nil, nil, err
	}

	size, err := fileSize(path)
	if err != nil {
		return Index{}, nil, nil, err
	}

	entries, err := readRevlogEntries(r, idx, size, headers)
	if err != nil {
		return Index{}, nil, nil, err
	}

	return idx, headers, entries, nil
}

// ReadAnno reconstructs the annotation payload at revision rev (-1 for
// latest), per spec §4.5 read_anno.
func ReadAnno(path string, rev int64) ([]byte, error) {
	_, headers, entries, err := readRevlog(path)
	if err != nil {
		return nil, err
	}

	if rev != -1 && (rev < 0 || rev >= int64(len(headers))) {
		return nil, &mdaerr.RevisionNotFoundError{Rev: rev}
	}
	if rev != -1 {
		headers = headers[:rev+1]
		entries = entries[:rev+1]
	}

	return revlog.Reconstruct(rev, entries)
}

// UpdateAnno appends a new revision to the revlog and rewrites the file
// end-to-end, leaving the training-data region untouched (spec §4.5
// update_anno).
func UpdateAnno(path string, newContent []byte, opts ...revlog.Option) error {
	_, headers, entries, err := readRevlog(path)
	if err != nil {
		return err
	}

	_, header, err := ReadInfo(path)
	if err != nil {
		return err
	}
	training, err := ExtractTraining(path)
	if err != nil {
		return err
	}

	newHeaders, newEntries, err := revlog.Add(newContent, headers, entries, opts...)
	if err != nil {
		return err
	}

	return Write(path, header, training, newHeaders, newEntries)
}

// RevisionInfo is the structured form of one revlog header, consumed by
// ListRevisions and the CLI's `list` command. It mirrors the fields the
// original tool's print_revlog_headers prints (spec's original_source
// supplement).
type RevisionInfo struct {
	Rev     uint64
	Length  uint32
	LinkRev int32
	NodeID  [20]byte
	P1Rev   [20]byte
	P2Rev   [20]byte
}

// ShortNodeID returns the first 6 hex characters of NodeID, matching the
// original tool's nodeid_to_short_hex.
func (r RevisionInfo) ShortNodeID() string { return shortHex(r.NodeID[:]) }

// ShortP1 returns the first 6 hex characters of P1Rev.
func (r RevisionInfo) ShortP1() string { return shortHex(r.P1Rev[:]) }

// ShortP2 returns the first 6 hex characters of P2Rev.
func (r RevisionInfo) ShortP2() string { return shortHex(r.P2Rev[:]) }

func shortHex(b []byte) string {
	n := 3 // 3 bytes -> 6 hex chars
	if len(b) < n {
		n = len(b)
	}
	return hexEncode(b[:n])
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}

// ListRevisions returns every revision's header metadata in order (spec's
// original_source supplement: the original's print_revlog_headers, made
// data instead of stdout).
func ListRevisions(path string) ([]RevisionInfo, error) {
	_, headers, _, err := readRevlog(path)
	if err != nil {
		return nil, err
	}
	out := make([]RevisionInfo, len(headers))
	for i, h := range headers {
		out[i] = RevisionInfo{
			Rev:     h.Rev,
			Length:  h.Length,
			LinkRev: h.LinkRev,
			NodeID:  [20]byte(h.NodeID),
			P1Rev:   [20]byte(h.P1Rev),
			P2Rev:   [20]byte(h.P2Rev),
		}
	}
	return out, nil
}

// Extract writes the requested annotation revision and the training data
// to two sinks in one call (spec's original_source supplement:
// extract_data_from_mda combines extract_anno_from_mda and
// extract_train_from_mda).
func Extract(path string, rev int64, annoSink, trainSink io.Writer) error {
	anno, err := ReadAnno(path, rev)
	if err != nil {
		return err
	}
	if _, err := annoSink.Write(anno); err != nil {
		return mdaerr.WrapIO("write annotation sink", err)
	}

	training, err := ExtractTraining(path)
	if err != nil {
		return err
	}
	if _, err := trainSink.Write(training.Payload()); err != nil {
		return mdaerr.WrapIO("write training sink", err)
	}
	return nil
}
