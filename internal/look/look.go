// Package look reads and writes the binary recording format produced by the
// lab acquisition systems. A recording carries an experiment name and a set
// of channels; channel samples are stored column-major as big-endian
// float64. Channels without a unit label are raw sensor counts (bit) and
// need a calibration before they mean anything physical.
//
// Layout, version 1:
//
//	offset  size  field
//	0       4     magic "LOOK"
//	4       2     format version (uint16)
//	6       2     channel count (uint16)
//	8       4     record count (uint32)
//	12      -     experiment name (uint16 length + bytes)
//	...     -     per channel: name, unit label (uint16 length + bytes each)
//	...     -     per channel: record-count float64 samples
package look

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/crypto/blake2b"

	"golook/internal/dataset"
	"golook/pkg/units"
)

// Magic identifies a look recording.
var Magic = [4]byte{'L', 'O', 'O', 'K'}

// FormatVersion is the current recording format version.
const FormatVersion uint16 = 1

// Limits guarding against corrupt headers.
const (
	maxChannels   = 4096
	maxNameLength = 1024
)

// Sentinel errors for recording files.
var (
	// ErrBadMagic indicates the file is not a look recording.
	ErrBadMagic = errors.New("look: bad magic, not a look recording")

	// ErrUnsupportedVersion indicates a format version this reader does not speak.
	ErrUnsupportedVersion = errors.New("look: unsupported format version")

	// ErrCorrupt indicates a structurally invalid or truncated recording.
	ErrCorrupt = errors.New("look: corrupt recording")
)

// Metadata describes a recording independent of its samples.
type Metadata struct {
	Experiment string
	Channels   int
	Records    int
}

// ReadFile parses a recording from disk into a dataset of unit-tagged
// channels. Unlabeled channels carry the bit unit.
func ReadFile(path string) (*dataset.Dataset, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// Read parses a recording from a stream.
func Read(r io.Reader) (*dataset.Dataset, *Metadata, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: missing magic: %v", ErrCorrupt, err)
	}
	if magic != Magic {
		return nil, nil, ErrBadMagic
	}

	var version, channels uint16
	var records uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if err := binary.Read(r, binary.BigEndian, &channels); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if err := binary.Read(r, binary.BigEndian, &records); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if channels == 0 || channels > maxChannels {
		return nil, nil, fmt.Errorf("%w: implausible channel count %d", ErrCorrupt, channels)
	}

	experiment, err := readString(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: experiment name: %v", ErrCorrupt, err)
	}

	type header struct {
		name string
		unit units.Unit
	}
	headers := make([]header, channels)
	for i := range headers {
		name, err := readString(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: channel %d name: %v", ErrCorrupt, i, err)
		}
		label, err := readString(r)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: channel %d unit: %v", ErrCorrupt, i, err)
		}
		unit := units.Bit
		if label != "" {
			unit, err = units.Parse(label)
			if err != nil {
				return nil, nil, fmt.Errorf("channel %q: %w", name, err)
			}
		}
		headers[i] = header{name: name, unit: unit}
	}

	ds := dataset.New()
	buf := make([]byte, 8*int(records))
	for _, h := range headers {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, fmt.Errorf("%w: channel %q samples: %v", ErrCorrupt, h.name, err)
		}
		samples := make([]float64, records)
		for i := range samples {
			bits := binary.BigEndian.Uint64(buf[8*i:])
			samples[i] = math.Float64frombits(bits)
		}
		ds.Set(h.name, units.Wrap(samples, h.unit))
	}

	meta := &Metadata{
		Experiment: experiment,
		Channels:   int(channels),
		Records:    int(records),
	}
	return ds, meta, nil
}

// WriteFile serializes a dataset as a look recording. Channel unit labels
// are taken from each quantity's unit string; the bit unit is written as an
// empty label so raw fixtures round-trip unchanged.
func WriteFile(path string, ds *dataset.Dataset, experiment string) error {
	records, err := ds.Rows()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w, ds, experiment, records); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush recording: %w", err)
	}
	return f.Sync()
}

func write(w io.Writer, ds *dataset.Dataset, experiment string, records int) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	for _, v := range []interface{}{FormatVersion, uint16(ds.Len()), uint32(records)} {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return err
		}
	}
	if err := writeString(w, experiment); err != nil {
		return err
	}

	names := ds.Names()
	for _, name := range names {
		q, _ := ds.Get(name)
		label := q.Unit().String()
		if q.Unit() == units.Bit {
			label = ""
		}
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := writeString(w, label); err != nil {
			return err
		}
	}

	buf := make([]byte, 8)
	for _, name := range names {
		q, _ := ds.Get(name)
		for i := 0; i < q.Len(); i++ {
			binary.BigEndian.PutUint64(buf, math.Float64bits(q.At(i)))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if n > maxNameLength {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > maxNameLength {
		return fmt.Errorf("string %q exceeds length limit", s)
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// Checksum returns the hex BLAKE2b-256 digest of a recording file, used to
// identify recordings in listings and manifests.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum recording: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
