// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// BlobPool is the indexed pool of compressed binary blobs (images, sound
// samples, item payloads too large to inline) that sit after the item
// region of a DATA container. Each blob is zlib-compressed independently,
// matching the reference encoder's per-blob zlib.compress call.
type BlobPool struct {
	buf            []byte
	dataStart      int64
	compressedSize []int32 // from the data-offset table, by difference
	uncompressed   []int32 // side table, one entry per raw blob
}

// ParseBlobPool locates the data-offset table and the uncompressed-size
// side table that follow the item-offset table, and records where the
// raw blob region begins.
func ParseBlobPool(buf []byte, h *Header, itemsStart int64) (*BlobPool, error) {
	pos := 36 + 12*int64(h.NumItemTypes) + 4*int64(h.NumItems)

	dataOffsets := make([]int32, h.NumRawData)
	for i := range dataOffsets {
		if pos+4 > int64(len(buf)) {
			return nil, fmt.Errorf("%w: data-offset table truncated", ErrTruncated)
		}
		dataOffsets[i] = int32(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
	}

	uncompressed := make([]int32, h.NumRawData)
	for i := range uncompressed {
		if pos+4 > int64(len(buf)) {
			return nil, fmt.Errorf("%w: uncompressed-size table truncated", ErrTruncated)
		}
		uncompressed[i] = int32(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
	}

	sizes := make([]int32, h.NumRawData)
	for i := range dataOffsets {
		var next int32
		if i+1 < len(dataOffsets) {
			next = dataOffsets[i+1]
		} else {
			next = h.DataSize
		}
		sizes[i] = next - dataOffsets[i]
	}

	return &BlobPool{
		buf:            buf,
		dataStart:      itemsStart + int64(h.ItemSize),
		compressedSize: sizes,
		uncompressed:   uncompressed,
	}, nil
}

// Blob decompresses and returns the raw bytes of blob index i.
func (p *BlobPool) Blob(i int32) ([]byte, error) {
	if i < 0 || int(i) >= len(p.compressedSize) {
		return nil, fmt.Errorf("%w: blob %d", ErrBlobIndexOutOfRange, i)
	}

	var offset int64
	for j := int32(0); j < i; j++ {
		offset += int64(p.compressedSize[j])
	}
	start := p.dataStart + offset
	end := start + int64(p.compressedSize[i])
	if end > int64(len(p.buf)) {
		return nil, fmt.Errorf("%w: blob %d extends past end of file", ErrTruncated, i)
	}

	r, err := zlib.NewReader(bytes.NewReader(p.buf[start:end]))
	if err != nil {
		return nil, fmt.Errorf("%w: blob %d: %v", ErrCorruptBlob, i, err)
	}
	defer r.Close()

	out := make([]byte, 0, p.uncompressed[i])
	w := bytes.NewBuffer(out)
	if _, err := io.Copy(w, r); err != nil {
		return nil, fmt.Errorf("%w: blob %d: %v", ErrCorruptBlob, i, err)
	}
	return w.Bytes(), nil
}

// Count returns the number of raw blobs in the pool.
func (p *BlobPool) Count() int {
	return len(p.compressedSize)
}

// BlobBuilder accumulates raw blobs and zlib-compresses each one as it
// is added, mirroring the reference writer's one-shot per-blob
// compression pass.
type BlobBuilder struct {
	compressed   [][]byte
	uncompressed []int32
}

// Add compresses raw and appends it to the pool, returning its index.
func (b *BlobBuilder) Add(raw []byte) (int32, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return 0, fmt.Errorf("datafile: compress blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("datafile: compress blob: %w", err)
	}

	idx := int32(len(b.compressed))
	b.compressed = append(b.compressed, buf.Bytes())
	b.uncompressed = append(b.uncompressed, int32(len(raw)))
	return idx, nil
}

// Count returns the number of blobs added so far.
func (b *BlobBuilder) Count() int {
	return len(b.compressed)
}

// Offsets returns the cumulative byte offset of each blob within the
// concatenated compressed data region, for the data-offset table.
func (b *BlobBuilder) Offsets() []int32 {
	offsets := make([]int32, len(b.compressed))
	var pos int32
	for i, c := range b.compressed {
		offsets[i] = pos
		pos += int32(len(c))
	}
	return offsets
}

// UncompressedSizes returns the side table of raw blob sizes.
func (b *BlobBuilder) UncompressedSizes() []int32 {
	return b.uncompressed
}

// Bytes concatenates every compressed blob in insertion order.
func (b *BlobBuilder) Bytes() []byte {
	var out bytes.Buffer
	for _, c := range b.compressed {
		out.Write(c)
	}
	return out.Bytes()
}

// Size returns the total byte length of the compressed data region.
func (b *BlobBuilder) Size() int32 {
	var n int32
	for _, c := range b.compressed {
		n += int32(len(c))
	}
	return n
}
