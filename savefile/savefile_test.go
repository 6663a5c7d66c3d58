package savefile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/driftworks/gamedata"
	"github.com/plus3/driftworks/savefile"
	"github.com/plus3/driftworks/snapshot"
)

func sample() snapshot.Snapshot {
	return snapshot.Snapshot{
		Player: &snapshot.Player{X: 3, Y: -4, Inventory: map[gamedata.Resource]int{gamedata.Iron: 12}},
		Map: snapshot.Map{
			Floor:   []snapshot.Cell{{X: 0, Y: 0, Type: gamedata.Platform}, {X: 1, Y: 0, Type: gamedata.Platform}},
			Objects: []snapshot.Cell{{X: 1, Y: 0, Type: gamedata.Smelter}},
		},
		Asteroids: []snapshot.Body{{X: 50, Y: 60, DX: -1, DY: 2.5, Kind: gamedata.Gold, Amount: 9, MaxAmount: 20}},
	}
}

// split separates the header line from the compressed payload.
func split(t *testing.T, raw []byte) (savefile.Header, []byte) {
	t.Helper()
	i := bytes.IndexByte(raw, '\n')
	require.Positive(t, i)
	var h savefile.Header
	require.NoError(t, json.Unmarshal(raw[:i], &h))
	return h, raw[i+1:]
}

func join(t *testing.T, h savefile.Header, body []byte) []byte {
	t.Helper()
	hb, err := json.Marshal(h)
	require.NoError(t, err)
	return append(append(hb, '\n'), body...)
}

func compress(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	h, err := savefile.Encode(&buf, 1234, sample())
	require.NoError(t, err)
	assert.Equal(t, savefile.Version, h.Version)
	assert.Equal(t, uint64(1234), h.Tick)
	assert.NotEqual(t, uuid.Nil, h.SaveID)
	assert.Len(t, h.Checksum, 16)

	peek, err := savefile.ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, h, peek)

	save, err := savefile.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, save.Header)
	assert.Equal(t, sample(), save.Snapshot)
}

func TestSaveIdsAreUnique(t *testing.T) {
	_, a, err := savefile.Marshal(1, sample())
	require.NoError(t, err)
	_, b, err := savefile.Marshal(1, sample())
	require.NoError(t, err)
	assert.NotEqual(t, a.SaveID, b.SaveID)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestChecksumMismatch(t *testing.T) {
	raw, _, err := savefile.Marshal(7, sample())
	require.NoError(t, err)

	h, body := split(t, raw)
	h.Checksum = "0000000000000000"
	_, err = savefile.Decode(bytes.NewReader(join(t, h, body)))
	assert.ErrorIs(t, err, savefile.ErrChecksum)
}

func TestVersionMismatch(t *testing.T) {
	raw, _, err := savefile.Marshal(7, sample())
	require.NoError(t, err)

	h, body := split(t, raw)
	h.Version = 99
	_, err = savefile.Decode(bytes.NewReader(join(t, h, body)))
	assert.ErrorIs(t, err, savefile.ErrVersion)
}

func TestInvalidSnapshotInsideValidContainer(t *testing.T) {
	payload := []byte(`{"map":{"objects":[{"x":0,"y":0,"type":2}]},"asteroids":[]}`)
	h := savefile.Header{
		Version:  savefile.Version,
		SaveID:   uuid.New(),
		Checksum: fmt.Sprintf("%016x", xxhash.Sum64(payload)),
	}
	_, err := savefile.Decode(bytes.NewReader(join(t, h, compress(t, payload))))
	assert.ErrorIs(t, err, snapshot.ErrInvalid)
}

func TestTruncatedSave(t *testing.T) {
	raw, _, err := savefile.Marshal(7, sample())
	require.NoError(t, err)
	_, err = savefile.Decode(bytes.NewReader(raw[:len(raw)-8]))
	assert.Error(t, err)

	_, err = savefile.Decode(bytes.NewReader([]byte("not a save")))
	assert.Error(t, err)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "world.sav")
	h, err := savefile.WriteFile(path, 42, sample())
	require.NoError(t, err)

	save, err := savefile.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, h, save.Header)
	assert.Equal(t, sample(), save.Snapshot)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	_, err = savefile.ReadFile(filepath.Join(t.TempDir(), "missing.sav"))
	assert.Error(t, err)
}

func TestSlotStore(t *testing.T) {
	ctx := context.Background()
	store, err := savefile.OpenSlots(filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Save(ctx, "beta", 10, sample())
	require.NoError(t, err)
	first, err := store.Save(ctx, "alpha", 20, sample())
	require.NoError(t, err)

	slots, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "alpha", slots[0].Name)
	assert.Equal(t, "beta", slots[1].Name)
	assert.Equal(t, first.SaveID, slots[0].SaveID)
	assert.Equal(t, uint64(20), slots[0].Tick)
	assert.Positive(t, slots[0].Size)
	assert.False(t, slots[0].SavedAt.IsZero())

	changed := sample()
	changed.Player.X = 99
	second, err := store.Save(ctx, "alpha", 30, changed)
	require.NoError(t, err)

	save, err := store.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, second, save.Header)
	assert.Equal(t, 99.0, save.Snapshot.Player.X)

	require.NoError(t, store.Delete(ctx, "alpha"))
	_, err = store.Load(ctx, "alpha")
	assert.ErrorIs(t, err, savefile.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "alpha"), savefile.ErrNotFound)

	slots, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestSlotStoreInMemory(t *testing.T) {
	store, err := savefile.OpenSlots(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = store.Save(ctx, "quick", 1, snapshot.Snapshot{})
	require.NoError(t, err)
	save, err := store.Load(ctx, "quick")
	require.NoError(t, err)
	assert.Nil(t, save.Snapshot.Player)
	assert.Empty(t, save.Snapshot.Asteroids)
}
