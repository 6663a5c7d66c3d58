// Package savefile stores snapshots on disk. A save is one JSON header line
// followed by the zstd-compressed snapshot JSON. The header carries the
// payload checksum, so corruption is detected before the snapshot is parsed.
package savefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/plus3/driftworks/snapshot"
)

// Version is the container format written by Encode.
const Version = 1

var (
	ErrChecksum = errors.New("save checksum mismatch")
	ErrVersion  = errors.New("unsupported save version")
)

type Header struct {
	Version  int       `json:"version"`
	SaveID   uuid.UUID `json:"save_id"`
	Tick     uint64    `json:"tick"`
	Checksum string    `json:"checksum"`
}

// Save is a decoded save file.
type Save struct {
	Header   Header
	Snapshot snapshot.Snapshot
}

func checksum(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

// Encode writes snap taken at tick to w and returns the header written.
func Encode(w io.Writer, tick uint64, snap snapshot.Snapshot) (Header, error) {
	payload, err := snapshot.Encode(snap)
	if err != nil {
		return Header{}, errors.Wrap(err, "encode snapshot")
	}

	h := Header{
		Version:  Version,
		SaveID:   uuid.New(),
		Tick:     tick,
		Checksum: checksum(payload),
	}
	hb, err := json.Marshal(h)
	if err != nil {
		return h, errors.Wrap(err, "encode header")
	}
	if _, err := w.Write(append(hb, '\n')); err != nil {
		return h, errors.Wrap(err, "write header")
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return h, errors.Wrap(err, "zstd writer")
	}
	if _, err := enc.Write(payload); err != nil {
		_ = enc.Close()
		return h, errors.Wrap(err, "write payload")
	}
	if err := enc.Close(); err != nil {
		return h, errors.Wrap(err, "flush payload")
	}
	return h, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	var h Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, errors.Wrap(err, "read header")
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, errors.Wrap(err, "decode header")
	}
	if h.Version != Version {
		return h, errors.Wrap(ErrVersion, strconv.Itoa(h.Version))
	}
	return h, nil
}

// ReadHeader reads only the header line.
func ReadHeader(r io.Reader) (Header, error) {
	return readHeader(bufio.NewReader(r))
}

// Decode reads a save, verifies its checksum and validates the snapshot.
func Decode(r io.Reader) (Save, error) {
	var save Save
	br := bufio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return save, err
	}
	save.Header = h

	dec, err := zstd.NewReader(br)
	if err != nil {
		return save, errors.Wrap(err, "zstd reader")
	}
	defer dec.Close()

	payload, err := io.ReadAll(dec)
	if err != nil {
		return save, errors.Wrap(err, "read payload")
	}
	if sum := checksum(payload); sum != h.Checksum {
		return save, errors.Wrapf(ErrChecksum, "header %s, payload %s", h.Checksum, sum)
	}

	save.Snapshot, err = snapshot.Decode(payload)
	if err != nil {
		return save, errors.Wrap(err, "decode snapshot")
	}
	return save, nil
}

// Marshal is Encode into a byte slice.
func Marshal(tick uint64, snap snapshot.Snapshot) ([]byte, Header, error) {
	var buf bytes.Buffer
	h, err := Encode(&buf, tick, snap)
	return buf.Bytes(), h, err
}

// WriteFile writes a save to path. The file is replaced atomically.
func WriteFile(path string, tick uint64, snap snapshot.Snapshot) (Header, error) {
	raw, h, err := Marshal(tick, snap)
	if err != nil {
		return h, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return h, errors.Wrap(err, "create save dir")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return h, errors.Wrap(err, "write save")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return h, errors.Wrap(err, "replace save")
	}
	return h, nil
}

// ReadFile reads and verifies the save at path.
func ReadFile(path string) (Save, error) {
	f, err := os.Open(path)
	if err != nil {
		return Save{}, errors.Wrap(err, "open save")
	}
	defer f.Close()
	return Decode(f)
}
