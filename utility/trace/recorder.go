// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package trace

import (
	"bytes"
	"encoding/gob"
	"io"
	"sync"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// NewRecorder creates a Recorder. The Calls field of header is
// filled in when writing.
func NewRecorder(header Header) *Recorder {
	return &Recorder{
		header: header,
	}
}

// Recorder collects calls in memory until they are written out with
// WriteTo. It is safe to use concurrently.
type Recorder struct {
	header Header

	mutex sync.Mutex
	seq   uint64
	calls []Call
}

// Record appends a call.
func (r *Recorder) Record(name, args, result string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.seq++
	r.calls = append(r.calls, Call{
		Seq:    r.seq,
		Name:   name,
		Args:   args,
		Result: result,
	})
}

// Calls returns a copy of the calls recorded so far.
func (r *Recorder) Calls() []Call {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Call(nil), r.calls...)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes all recorded calls as a trace file. The recorded calls
// are kept, a later WriteTo writes them again.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	calls := r.Calls()
	header := r.header
	header.Calls = int64(len(calls))

	var rawHeader bytes.Buffer
	if err := gob.NewEncoder(&rawHeader).Encode(header); err != nil {
		return 0, errors.Wrap(err, "encode header")
	}

	cw := &countingWriter{w: w}
	if _, err := cw.Write(magic[:]); err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(int64ToBinary(int64(rawHeader.Len()))); err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(rawHeader.Bytes()); err != nil {
		return cw.n, err
	}

	zw := lz4.NewWriter(cw)
	if err := gob.NewEncoder(zw).Encode(calls); err != nil {
		return cw.n, errors.Wrap(err, "encode calls")
	}
	if err := zw.Close(); err != nil {
		return cw.n, errors.Wrap(err, "compress calls")
	}
	return cw.n, nil
}
