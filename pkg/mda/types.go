// Package mda implements the MDA container format: on-disk layout, index,
// and the read/append/update protocols that keep the training-data and
// revlog regions consistent across mutation (spec §4.5, §4.6).
package mda

import (
	"github.com/ipfs/go-cid"

	"github.com/go-mda/mda/pkg/mdaerr"
)

// IndexSize is the fixed serialized size of MDAIndex: four u64 offsets.
const IndexSize = 8 * 4

// Index is the fixed-size record at byte 0 of an MDA file, giving the
// absolute offsets of the other four regions (spec §3 MDAIndex).
type Index struct {
	HeaderOffset      uint64
	TrainDataOffset   uint64
	AnnoHeadersOffset uint64
	AnnoEntriesOffset uint64
}

// DataKind tags the media kind of the training payload (spec §4.6).
type DataKind uint8

const (
	KindText DataKind = iota
	KindImage
	KindVideo
	KindAudio
)

func (k DataKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

func validKind(k DataKind) error {
	switch k {
	case KindText, KindImage, KindVideo, KindAudio:
		return nil
	default:
		return &mdaerr.MediaKindUnknownError{Kind: byte(k)}
	}
}

// Header is the container-level descriptor written immediately after the
// index (spec §3 Header, §9 item 5 — the concrete field choice this
// implementation makes for the spec's open field set). Origin is a
// free-form provenance string; when the training payload was derived from
// some other content-addressed source, this module's convention is to
// store that source's CID string form here (see pkg/mda.Header.Origin
// doc in SPEC_FULL.md's domain-stack table), but any string is accepted.
type Header struct {
	Kind      DataKind
	Origin    string
	CreatedAt int64
}

// NewHeaderFromCID builds a Header whose Origin is the string form of id,
// the convention this module uses for "the upstream content this archive's
// training data derives from" (see DESIGN.md, spec §9 item 5). Pass
// cid.Undef to build a Header with no lineage pointer.
func NewHeaderFromCID(kind DataKind, id cid.Cid, createdAt int64) Header {
	origin := ""
	if id.Defined() {
		origin = id.String()
	}
	return Header{Kind: kind, Origin: origin, CreatedAt: createdAt}
}

// OriginCID parses h.Origin back into a cid.Cid. It returns cid.Undef, nil
// if Origin is empty (no recorded lineage), and a CorruptArchive error if
// Origin is non-empty but not a valid CID string.
func (h Header) OriginCID() (cid.Cid, error) {
	if h.Origin == "" {
		return cid.Undef, nil
	}
	id, err := cid.Decode(h.Origin)
	if err != nil {
		return cid.Undef, mdaerr.NewCorruptArchive("header origin %q is not a valid cid: %v", h.Origin, err)
	}
	return id, nil
}

// TrainingData is the tagged union over {Text, Image, Video, Audio} (spec
// §3 TrainingData). Exactly one of Text/Bytes is meaningful, selected by
// Kind; the NewText/NewImage/NewVideo/NewAudio constructors and Payload
// below are the façade over it.
type TrainingData struct {
	Kind  DataKind
	Text  string
	Bytes []byte
}

// NewText builds a Text TrainingData.
func NewText(s string) TrainingData { return TrainingData{Kind: KindText, Text: s} }

// NewImage builds an Image TrainingData.
func NewImage(b []byte) TrainingData { return TrainingData{Kind: KindImage, Bytes: b} }

// NewVideo builds a Video TrainingData.
func NewVideo(b []byte) TrainingData { return TrainingData{Kind: KindVideo, Bytes: b} }

// NewAudio builds an Audio TrainingData.
func NewAudio(b []byte) TrainingData { return TrainingData{Kind: KindAudio, Bytes: b} }

// Payload returns the raw bytes of the training data regardless of kind,
// encoding Text as UTF-8 (spec §4.6: "text additionally encoded/decoded as
// UTF-8").
func (t TrainingData) Payload() []byte {
	if t.Kind == KindText {
		return []byte(t.Text)
	}
	return t.Bytes
}
