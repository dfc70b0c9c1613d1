package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pablodawson/proyecto-vision/pkg/wire"
)

// Magic opens every session recording.
const Magic = "PVREC001"

// maxRecordSize bounds a single record so a corrupt length cannot trigger
// a huge allocation.
const maxRecordSize = 256 << 20

var errBadMagic = errors.New("recording: not a session recording")

// ErrOverwritesInput is returned by CheckOutput when recording would
// truncate the file being replayed.
var ErrOverwritesInput = errors.New("recording: output is the input recording")

// CheckOutput fails with ErrOverwritesInput when output and input name the
// same file, through a different spelling or a link.
func CheckOutput(output, input string) error {
	if output == "" || input == "" {
		return nil
	}
	a, errA := filepath.Abs(output)
	b, errB := filepath.Abs(input)
	if errA == nil && errB == nil && a == b {
		return ErrOverwritesInput
	}
	outInfo, err := os.Stat(output)
	if err != nil {
		return nil
	}
	inInfo, err := os.Stat(input)
	if err != nil {
		return nil
	}
	if os.SameFile(outInfo, inInfo) {
		return ErrOverwritesInput
	}
	return nil
}

// Writer appends wire messages to a recording file. Each record is
// [u64 unix nanos][u32 length][CBOR payload], little-endian.
type Writer struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Create truncates path and writes the file header.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1024*1024)
	if _, err := w.WriteString(Magic); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: w}, nil
}

// Write appends one message.
func (r *Writer) Write(m wire.Message) error {
	payload, err := wire.Marshal(m)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return fmt.Errorf("recording writer is closed")
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.w.Write(header[:]); err != nil {
		return err
	}
	_, err = r.w.Write(payload)
	return err
}

// Close flushes and closes the file.
func (r *Writer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		r.w = nil
		return err
	}
	err := r.f.Close()
	r.w = nil
	return err
}

// Reader iterates over the messages of a recording.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

// OpenFile checks the header of path and positions on the first record.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := bufio.NewReaderSize(f, 1024*1024)

	header := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", errBadMagic, err)
	}
	if string(header) != Magic {
		_ = f.Close()
		return nil, fmt.Errorf("%w: magic %q", errBadMagic, string(header))
	}
	return &Reader{f: f, r: r}, nil
}

// Next returns the following message and the time it was recorded. It
// returns io.EOF after the last record, a truncated tail included.
func (r *Reader) Next() (wire.Message, time.Time, error) {
	var meta [12]byte
	if _, err := io.ReadFull(r.r, meta[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return wire.Message{}, time.Time{}, err
	}
	ts := time.Unix(0, int64(binary.LittleEndian.Uint64(meta[:8])))
	size := binary.LittleEndian.Uint32(meta[8:12])
	if size > maxRecordSize {
		return wire.Message{}, ts, fmt.Errorf("recording: record of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return wire.Message{}, ts, err
	}

	m, err := wire.Unmarshal(payload)
	return m, ts, err
}

func (r *Reader) Close() error {
	return r.f.Close()
}
