// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"encoding/binary"
	"fmt"
)

// signatureLen is the size of the magic bytes at offset 0.
const signatureLen = 4

// supportedVersion is the only header version this codec accepts.
const supportedVersion = 4

// Header is the fixed 36-byte prelude of a DATA container plus the
// offset-table size math derived from it.
type Header struct {
	Version      int32
	FileSize     int32
	Swaplen      int32
	NumItemTypes int32
	NumItems     int32
	NumRawData   int32
	ItemSize     int32
	DataSize     int32
}

// ParseHeader reads and validates the 36-byte prelude starting at offset 0
// of buf.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < 36 {
		return nil, fmt.Errorf("%w: header needs 36 bytes, got %d", ErrTruncated, len(buf))
	}

	sig := string(buf[:signatureLen])
	if sig != "DATA" && sig != "ATAD" {
		return nil, fmt.Errorf("%w: signature %q", ErrBadSignature, sig)
	}

	h := &Header{
		Version:      int32(binary.LittleEndian.Uint32(buf[4:8])),
		FileSize:     int32(binary.LittleEndian.Uint32(buf[8:12])),
		Swaplen:      int32(binary.LittleEndian.Uint32(buf[12:16])),
		NumItemTypes: int32(binary.LittleEndian.Uint32(buf[16:20])),
		NumItems:     int32(binary.LittleEndian.Uint32(buf[20:24])),
		NumRawData:   int32(binary.LittleEndian.Uint32(buf[24:28])),
		ItemSize:     int32(binary.LittleEndian.Uint32(buf[28:32])),
		DataSize:     int32(binary.LittleEndian.Uint32(buf[32:36])),
	}

	if h.Version != supportedVersion {
		return nil, fmt.Errorf("%w: header version %d, only %d is accepted", ErrUnsupportedVersion, h.Version, supportedVersion)
	}

	return h, nil
}

// Len returns the byte offset at which item payloads begin: the 36-byte
// prelude, the item-type table, and the three offset tables.
func (h *Header) Len() int64 {
	return 36 +
		12*int64(h.NumItemTypes) +
		4*(int64(h.NumItems)+2*int64(h.NumRawData))
}

// Write encodes the header (without the signature) into a freshly
// allocated 32-byte slice, in the field order it is read back in.
func (h *Header) Write() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.FileSize))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.Swaplen))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.NumItemTypes))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.NumItems))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(h.NumRawData))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.ItemSize))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(h.DataSize))
	return buf
}
