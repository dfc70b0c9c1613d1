// Package npy reads and writes 2-D float32 arrays in the NumPy .npy
// format, version 1.0, little-endian, C order.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
)

const (
	magic     = "\x93NUMPY"
	headerLen = 10 // magic, version and header length
	align     = 64
)

var (
	errBadMagic = errors.New("npy: not a .npy file")
	errDType    = errors.New("npy: only little-endian float32 arrays are supported")
	errShape    = errors.New("npy: only 2-D arrays are supported")
)

// Array is a row-major matrix of float32.
type Array struct {
	Rows, Cols int
	Data       []float32
}

// Write encodes a rows x cols matrix.
func Write(w io.Writer, rows, cols int, data []float32) error {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return fmt.Errorf("npy: %d values do not fill a %dx%d array", len(data), rows, cols)
	}

	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	// The whole preamble is padded with spaces to a multiple of 64 bytes
	// and ends with a newline.
	pad := align - (headerLen+len(dict)+1)%align
	if pad == align {
		pad = 0
	}
	header := dict + string(bytes.Repeat([]byte{' '}, pad)) + "\n"

	bw := bufio.NewWriter(w)
	bw.WriteString(magic)
	bw.Write([]byte{1, 0})
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(header)))
	bw.Write(n[:])
	bw.WriteString(header)

	var buf [4]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes data to path, replacing any existing file.
func WriteFile(path string, rows, cols int, data []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, rows, cols, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var (
	descrRe = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	orderRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRe = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
	dimRe   = regexp.MustCompile(`\d+`)
)

// Read decodes a 2-D float32 array.
func Read(r io.Reader) (*Array, error) {
	pre := make([]byte, headerLen)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadMagic, err)
	}
	if string(pre[:6]) != magic {
		return nil, errBadMagic
	}

	var size int
	switch pre[6] {
	case 1:
		size = int(binary.LittleEndian.Uint16(pre[8:10]))
	case 2, 3:
		var rest [2]byte
		if _, err := io.ReadFull(r, rest[:]); err != nil {
			return nil, err
		}
		size = int(binary.LittleEndian.Uint32(append(pre[8:10:10], rest[:]...)))
	default:
		return nil, fmt.Errorf("npy: unsupported version %d.%d", pre[6], pre[7])
	}

	header := make([]byte, size)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	descr := descrRe.FindSubmatch(header)
	if descr == nil || string(descr[1]) != "<f4" {
		return nil, errDType
	}
	if order := orderRe.FindSubmatch(header); order == nil || string(order[1]) != "False" {
		return nil, errors.New("npy: fortran order is not supported")
	}
	shape := shapeRe.FindSubmatch(header)
	if shape == nil {
		return nil, errShape
	}
	dims := dimRe.FindAll(shape[1], -1)
	if len(dims) != 2 {
		return nil, errShape
	}
	rows, err := strconv.Atoi(string(dims[0]))
	if err != nil {
		return nil, err
	}
	cols, err := strconv.Atoi(string(dims[1]))
	if err != nil {
		return nil, err
	}

	raw := make([]byte, 4*rows*cols)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("npy: short data: %w", err)
	}
	a := &Array{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
	for i := range a.Data {
		a.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return a, nil
}

// ReadFile reads the array stored at path.
func ReadFile(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}
