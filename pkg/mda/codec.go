package mda

import (
	"encoding/binary"
	"io"

	"github.com/go-mda/mda/pkg/mdaerr"
)

// EncodeIndex serializes an Index to its fixed IndexSize-byte form.
func EncodeIndex(idx Index) []byte {
	buf := make([]byte, 0, IndexSize)
	buf = binary.LittleEndian.AppendUint64(buf, idx.HeaderOffset)
	buf = binary.LittleEndian.AppendUint64(buf, idx.TrainDataOffset)
	buf = binary.LittleEndian.AppendUint64(buf, idx.AnnoHeadersOffset)
	buf = binary.LittleEndian.AppendUint64(buf, idx.AnnoEntriesOffset)
	return buf
}

// DecodeIndex reads exactly IndexSize bytes from r.
func DecodeIndex(r io.Reader) (Index, error) {
	buf := make([]byte, IndexSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Index{}, mdaerr.NewCorruptArchive("short mda index read: %v", err)
	}
	return Index{
		HeaderOffset:      binary.LittleEndian.Uint64(buf[0:8]),
		TrainDataOffset:   binary.LittleEndian.Uint64(buf[8:16]),
		AnnoHeadersOffset: binary.LittleEndian.Uint64(buf[16:24]),
		AnnoEntriesOffset: binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// EncodeHeader serializes the container Header as: kind (1 byte), origin
// (u64 byte-length prefix + UTF-8 bytes), created-at (i64, 8 bytes).
// Self-delimiting: a reader never needs to know where the header ends
// before it starts decoding.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, 0, 1+8+len(h.Origin)+8)
	buf = append(buf, byte(h.Kind))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(h.Origin)))
	buf = append(buf, h.Origin...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(h.CreatedAt))
	return buf
}

// DecodeHeader reads a self-delimiting Header from r.
func DecodeHeader(r io.Reader) (Header, error) {
	var kindBuf [1]byte
	if _, err := io.ReadFull(r, kindBuf[:]); err != nil {
		return Header{}, mdaerr.NewCorruptArchive("short header kind read: %v", err)
	}
	kind := DataKind(kindBuf[0])
	if err := validKind(kind); err != nil {
		return Header{}, err
	}

	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Header{}, mdaerr.NewCorruptArchive("short header origin-length read: %v", err)
	}
	originLen := binary.LittleEndian.Uint64(lenBuf[:])

	origin := make([]byte, originLen)
	if _, err := io.ReadFull(r, origin); err != nil {
		return Header{}, mdaerr.NewCorruptArchive("short header origin read: %v", err)
	}

	var createdBuf [8]byte
	if _, err := io.ReadFull(r, createdBuf[:]); err != nil {
		return Header{}, mdaerr.NewCorruptArchive("short header created-at read: %v", err)
	}
	createdAt := int64(binary.LittleEndian.Uint64(createdBuf[:]))

	return Header{Kind: kind, Origin: string(origin), CreatedAt: createdAt}, nil
}

// EncodeTrainingData serializes the kind tag followed by the raw payload.
// Per spec §9 item 4 the payload carries no length of its own; its extent
// is the region bound (anno_headers_offset - train_data_offset) recorded
// in the index, not anything inside this encoding.
func EncodeTrainingData(t TrainingData) []byte {
	buf := make([]byte, 0, 1+len(t.Payload()))
	buf = append(buf, byte(t.Kind))
	buf = append(buf, t.Payload()...)
	return buf
}

// DecodeTrainingData reads the kind tag and exactly payloadLen bytes of
// payload from r. payloadLen must be supplied by the caller from the
// region bound; this function never infers it from the stream.
func DecodeTrainingData(r io.Reader, payloadLen int64) (TrainingData, error) {
	var kindBuf [1]byte
	if _, err := io.ReadFull(r, kindBuf[:]); err != nil {
		return TrainingData{}, mdaerr.NewCorruptArchive("short training-data kind read: %v", err)
	}
	kind := DataKind(kindBuf[0])
	if err := validKind(kind); err != nil {
		return TrainingData{}, err
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return TrainingData{}, mdaerr.NewCorruptArchive("short training-data payload read: %v", err)
	}

	if kind == KindText {
		return TrainingData{Kind: kind, Text: string(payload)}, nil
	}
	return TrainingData{Kind: kind, Bytes: payload}, nil
}
