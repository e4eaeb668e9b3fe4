package mda

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/go-mda/mda/pkg/mdaerr"
	"github.com/go-mda/mda/pkg/revlog"
)

// Scenario 5 (spec §8): generate, then read_info/extract yield the same
// training data and initial annotation back.
func TestRoundTripGenerateAndExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round-trip.mda")

	header := Header{Kind: KindText, Origin: "bafy-example", CreatedAt: 1700000000}
	training := NewText("T")
	require.NoError(t, Generate(path, header, training, []byte("A")))

	_, gotHeader, err := ReadInfo(path)
	require.NoError(t, err)
	require.Equal(t, header, gotHeader)

	gotTraining, err := ExtractTraining(path)
	require.NoError(t, err)
	require.Equal(t, training, gotTraining)

	anno, err := ReadAnno(path, -1)
	require.NoError(t, err)
	require.Equal(t, "A", string(anno))
}

// Scenario 6 (spec §8): update_anno persists history; earlier revisions
// remain reachable after a later one is appended.
func TestUpdatePersistsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.mda")

	header := Header{Kind: KindText, CreatedAt: 1700000000}
	require.NoError(t, Generate(path, header, NewText("T"), []byte("v1")))
	require.NoError(t, UpdateAnno(path, []byte("v2")))

	first, err := ReadAnno(path, 0)
	require.NoError(t, err)
	require.Equal(t, "v1", string(first))

	latest, err := ReadAnno(path, -1)
	require.NoError(t, err)
	require.Equal(t, "v2", string(latest))

	revisions, err := ListRevisions(path)
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	require.Equal(t, uint64(0), revisions[0].Rev)
	require.Equal(t, uint64(1), revisions[1].Rev)
}

func TestHeaderOriginCIDRoundTrip(t *testing.T) {
	mh, err := multihash.Sum([]byte("source-dataset"), multihash.SHA2_256, -1)
	require.NoError(t, err)
	id := cid.NewCidV1(cid.Raw, mh)

	header := NewHeaderFromCID(KindText, id, 1700000000)
	require.Equal(t, id.String(), header.Origin)

	gotID, err := header.OriginCID()
	require.NoError(t, err)
	require.True(t, id.Equals(gotID))
}

func TestHeaderOriginCIDEmptyWhenUndefined(t *testing.T) {
	header := NewHeaderFromCID(KindText, cid.Undef, 0)
	require.Empty(t, header.Origin)

	gotID, err := header.OriginCID()
	require.NoError(t, err)
	require.Equal(t, cid.Undef, gotID)
}

func TestExtractWritesBothSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extract.mda")
	require.NoError(t, Generate(path, Header{Kind: KindText}, NewText("train"), []byte("anno")))

	var annoBuf, trainBuf bytes.Buffer
	require.NoError(t, Extract(path, -1, &annoBuf, &trainBuf))
	require.Equal(t, "anno", annoBuf.String())
	require.Equal(t, "train", trainBuf.String())
}

func TestReadAnnoRevisionNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notfound.mda")
	require.NoError(t, Generate(path, Header{Kind: KindText}, NewText("T"), []byte("A")))

	_, err := ReadAnno(path, 5)
	require.Error(t, err)
	var rnf *mdaerr.RevisionNotFoundError
	require.ErrorAs(t, err, &rnf)
}

func TestDecodeHeaderRejectsUnknownKind(t *testing.T) {
	buf := EncodeHeader(Header{Kind: 200, Origin: "x", CreatedAt: 1})
	_, err := DecodeHeader(bytes.NewReader(buf))
	require.Error(t, err)
	var kindErr *mdaerr.MediaKindUnknownError
	require.ErrorAs(t, err, &kindErr)
}

func TestReadInfoCorruptArchiveOnTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.mda")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	_, _, err := ReadInfo(path)
	require.Error(t, err)
	var corrupt *mdaerr.CorruptArchiveError
	require.ErrorAs(t, err, &corrupt)
}

func TestWriteRejectsMismatchedHeadersAndEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.mda")
	headers, entries, err := revlog.Init([]byte("hello"))
	require.NoError(t, err)

	err = Write(path, Header{Kind: KindText}, NewText("T"), headers, append(entries, entries[0]))
	require.Error(t, err)
	var invariant *mdaerr.InvariantViolatedError
	require.ErrorAs(t, err, &invariant)
}
