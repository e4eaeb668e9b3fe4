package revlog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-mda/mda/pkg/hash"
)

// Scenario 1 (spec §8): init("hello") with block_size=2.
func TestInitSplitsAndHashes(t *testing.T) {
	headers, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, headers, 1)

	entry := entries[0]
	require.Equal(t, uint64(0), entry.ID)
	require.Equal(t, []uint64{0, 1, 2}, entry.Index)
	require.Len(t, entry.Blocks, 3)
	require.Equal(t, "he", string(entry.Blocks[0].Data))
	require.Equal(t, "ll", string(entry.Blocks[1].Data))
	require.Equal(t, "o", string(entry.Blocks[2].Data))

	h := headers[0]
	require.Equal(t, uint32(len(EncodeEntry(entry))), h.Length)
	require.Equal(t, hash.Null, h.P1Rev)
	require.Equal(t, hash.Null, h.P2Rev)

	wantNodeID, err := hash.NodeID(hash.Null, hash.Null, []byte("hello"), hash.SHA1)
	require.NoError(t, err)
	require.Equal(t, wantNodeID, h.NodeID)
}

// Scenario 2 (spec §8): add("help") after init("hello") with block_size=2;
// "he" is reused, "lp" is a new block numbered 3.
func TestAddPartialOverlap(t *testing.T) {
	headers, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)

	headers, entries, err = Add([]byte("help"), headers, entries, WithBlockSize(2))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	second := entries[1]
	require.Equal(t, uint64(1), second.ID)
	require.Equal(t, []uint64{0, 3}, second.Index)
	require.Len(t, second.Blocks, 1)
	require.Equal(t, uint64(3), second.Blocks[0].Number)
	require.Equal(t, "lp", string(second.Blocks[0].Data))

	require.Equal(t, int32(0), headers[1].LinkRev)
}

// Scenario 3 (spec §8): adding identical content contributes no new blocks.
func TestAddIdenticalContent(t *testing.T) {
	headers, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)

	_, entries, err = Add([]byte("hello"), headers, entries, WithBlockSize(2))
	require.NoError(t, err)

	second := entries[1]
	require.Equal(t, []uint64{0, 1, 2}, second.Index)
	require.Empty(t, second.Blocks)
}

// Scenario 4 (spec §8): reconstruct(-1) and reconstruct(0) after add("help").
func TestReconstructLatestAndHistorical(t *testing.T) {
	headers, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)
	headers, entries, err = Add([]byte("help"), headers, entries, WithBlockSize(2))
	require.NoError(t, err)
	_ = headers

	latest, err := Reconstruct(-1, entries)
	require.NoError(t, err)
	require.Equal(t, "help", string(latest))

	first, err := Reconstruct(0, entries)
	require.NoError(t, err)
	require.Equal(t, "hello", string(first))
}

func TestReconstructRevisionNotFound(t *testing.T) {
	_, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)

	_, err = Reconstruct(5, entries)
	require.Error(t, err)
}

func TestEmptyContentInit(t *testing.T) {
	headers, entries, err := Init(nil)
	require.NoError(t, err)
	require.Empty(t, entries[0].Index)
	require.Empty(t, entries[0].Blocks)
	require.Equal(t, uint32(len(EncodeEntry(entries[0]))), headers[0].Length)
}

func TestDefaultChainingBugReproducedVerbatim(t *testing.T) {
	headers, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)
	headers, entries, err = Add([]byte("help"), headers, entries, WithBlockSize(2))
	require.NoError(t, err)
	headers, _, err = Add([]byte("helps"), headers, entries, WithBlockSize(2))
	require.NoError(t, err)

	// Third header's p1rev should equal the second header's p1rev (the bug),
	// not the second header's nodeid (the corrected rule).
	require.Equal(t, headers[1].P1Rev, headers[2].P1Rev)
	require.NotEqual(t, headers[1].NodeID, headers[2].P1Rev)
}

func TestStrictChainingOption(t *testing.T) {
	headers, entries, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)
	headers, entries, err = Add([]byte("help"), headers, entries, WithBlockSize(2), WithStrictChaining(true))
	require.NoError(t, err)
	headers, _, err = Add([]byte("helps"), headers, entries, WithBlockSize(2), WithStrictChaining(true))
	require.NoError(t, err)

	require.Equal(t, headers[1].NodeID, headers[2].P1Rev)
}

func TestCodecRoundTrip(t *testing.T) {
	_, entries, err := Init([]byte("hello world"), WithBlockSize(3))
	require.NoError(t, err)

	encoded := EncodeEntry(entries[0])
	decoded, err := DecodeEntry(encoded)
	require.NoError(t, err)
	require.Equal(t, entries[0], decoded)
}

func TestHeaderCodecRoundTrip(t *testing.T) {
	headers, _, err := Init([]byte("hello"), WithBlockSize(2))
	require.NoError(t, err)

	buf := EncodeHeader(headers[0])
	require.Len(t, buf, HeaderSize)

	decoded, err := DecodeHeader(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, headers[0], decoded)
}
