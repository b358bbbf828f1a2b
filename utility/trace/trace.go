// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package trace records legacy API calls and stores them in an lz4 backed
// file. A trace file starts with a magic number and a fixed size field
// holding the length of the gob encoded Header, so the header can be read
// without decompressing anything. The calls follow as a single lz4 stream.
package trace

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a trace file")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16

	// MaxHeaderSize bounds the announced header size of a file
	MaxHeaderSize = 1 << 20
)

var magic = [MagicLength]byte{'G', 'R', 'T', '\x00'}

// Header is the file header of a trace.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64

	// Calls is the number of recorded calls
	Calls int64
}

// Call is one recorded legacy API call.
type Call struct {
	Seq    uint64
	Name   string
	Args   string
	Result string
}

func int64ToBinary(num int64) []byte {
	numBytes := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(numBytes, num)
	return numBytes
}

func binaryToInt64(bts []byte) (int64, error) {
	return binary.ReadVarint(bytes.NewReader(bts))
}
