// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package trace_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/grvk/utility/trace"
)

func newRecorder() *trace.Recorder {
	r := trace.NewRecorder(trace.Header{
		Author:      "test",
		DateCreated: 1568000000,
		Version:     1,
	})
	r.Record("grInitAndEnumerateGpus", "&{AppName:test}", "GR_SUCCESS")
	r.Record("grCreateDevice", "&{RequestedQueues:[{Type:universal Count:1}]}", "GR_SUCCESS")
	r.Record("grGetDeviceQueue", "compute 3", "GR_ERROR_INVALID_ORDINAL")
	return r
}

func TestRecorderSequence(t *testing.T) {
	c := qt.New(t)

	calls := newRecorder().Calls()
	c.Assert(calls, qt.HasLen, 3)
	for i, call := range calls {
		c.Assert(call.Seq, qt.Equals, uint64(i+1))
	}
	c.Assert(calls[2], qt.DeepEquals, trace.Call{
		Seq:    3,
		Name:   "grGetDeviceQueue",
		Args:   "compute 3",
		Result: "GR_ERROR_INVALID_ORDINAL",
	})
}

func TestRecorderConcurrent(t *testing.T) {
	c := qt.New(t)

	r := trace.NewRecorder(trace.Header{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Record("grEndCommandBuffer", "", "GR_SUCCESS")
			}
		}()
	}
	wg.Wait()

	calls := r.Calls()
	c.Assert(calls, qt.HasLen, 800)
	seen := make(map[uint64]bool)
	for _, call := range calls {
		seen[call.Seq] = true
	}
	c.Assert(seen, qt.HasLen, 800)
}

func TestWriteAndOpen(t *testing.T) {
	c := qt.New(t)

	r := newRecorder()
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(buf.Len()))
	c.Assert(buf.Bytes()[:trace.MagicLength], qt.DeepEquals, []byte("GRT\x00"))

	tr, err := trace.Open(bytes.NewReader(buf.Bytes()))
	c.Assert(err, qt.IsNil)
	c.Assert(tr.Header, qt.DeepEquals, trace.Header{
		Author:      "test",
		DateCreated: 1568000000,
		Version:     1,
		Calls:       3,
	})
	c.Assert(tr.Calls, qt.DeepEquals, r.Calls())
}

func TestOpenFile(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "calls.grt")
	f, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	_, err = newRecorder().WriteTo(f)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	tr, err := trace.OpenFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(tr.Calls, qt.HasLen, 3)
	c.Assert(tr.Calls[0].Name, qt.Equals, "grInitAndEnumerateGpus")
}

func TestOpenFileMissing(t *testing.T) {
	c := qt.New(t)

	_, err := trace.OpenFile(filepath.Join(c.TempDir(), "missing.grt"))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestOpenBadMagic(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	_, err := newRecorder().WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	data := buf.Bytes()
	copy(data, "KAR\x00")

	_, err = trace.Open(bytes.NewReader(data))
	c.Assert(err, qt.Equals, trace.ErrFileFormat)
}

func TestOpenTruncated(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	_, err := newRecorder().WriteTo(&buf)
	c.Assert(err, qt.IsNil)

	for _, size := range []int{0, 2, trace.MagicLength + 3, trace.MagicLength + trace.HeaderSizeNumberLength + 1} {
		_, err := trace.Open(bytes.NewReader(buf.Bytes()[:size]))
		c.Assert(err, qt.ErrorIs, trace.ErrFileFormat, qt.Commentf("size %d", size))
	}
}

// readerAt hides the size of the underlying reader.
type readerAt struct {
	r io.ReaderAt
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.r.ReadAt(p, off)
}

func TestOpenHeaderSizeOutOfRange(t *testing.T) {
	c := qt.New(t)

	for _, size := range []int64{1 << 62, trace.MaxHeaderSize + 1, 1 << 16} {
		data := make([]byte, trace.MagicLength+trace.HeaderSizeNumberLength+8)
		copy(data, "GRT\x00")
		binary.PutVarint(data[trace.MagicLength:], size)

		_, err := trace.Open(bytes.NewReader(data))
		c.Assert(err, qt.Equals, trace.ErrFileFormat, qt.Commentf("size %d", size))

		_, err = trace.Open(readerAt{bytes.NewReader(data)})
		c.Assert(err, qt.Equals, trace.ErrFileFormat, qt.Commentf("unsized, size %d", size))
	}
}
