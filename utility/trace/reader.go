// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package trace

import (
	"bytes"
	"encoding/gob"
	"io"
	"math"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Trace is a trace file read back into memory.
type Trace struct {
	Header Header
	Calls  []Call
}

// Open reads the trace from r. It will also check if r actually
// holds a trace, returns ErrFileFormat otherwise.
func Open(r io.ReaderAt) (*Trace, error) {
	fileMagic := make([]byte, MagicLength)
	if num, err := r.ReadAt(fileMagic, 0); num < MagicLength {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	} else if !bytes.Equal(fileMagic, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); num < HeaderSizeNumberLength {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToInt64(headerSizeBytes)
	if err != nil || headerSize <= 0 || headerSize > MaxHeaderSize {
		return nil, ErrFileFormat
	}
	if size, ok := readerSize(r); ok && headerSize > size-MagicLength-HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(num) < headerSize {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	t := &Trace{}
	if err := gob.NewDecoder(bytes.NewReader(headerBytes)).Decode(&t.Header); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}

	offset := MagicLength + HeaderSizeNumberLength + headerSize
	body := io.NewSectionReader(r, offset, math.MaxInt64-offset)
	if err := gob.NewDecoder(lz4.NewReader(body)).Decode(&t.Calls); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	if int64(len(t.Calls)) != t.Header.Calls {
		return nil, errors.Wrapf(ErrFileFormat, "header announces %d calls, found %d", t.Header.Calls, len(t.Calls))
	}
	return t, nil
}

// readerSize returns the length of r when the reader knows it.
func readerSize(r io.ReaderAt) (int64, bool) {
	switch s := r.(type) {
	case interface{ Size() int64 }:
		return s.Size(), true
	case interface{ Len() int }:
		return int64(s.Len()), true
	}
	return 0, false
}

// OpenFile memory maps the file at path and reads the trace from it.
func OpenFile(path string) (*Trace, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "map trace file")
	}
	defer r.Close()
	return Open(r)
}
