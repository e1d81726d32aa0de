// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"fmt"
	"os"

	"codeberg.org/go-mmap/mmap"
)

// File is a fully parsed DATA container: its header, item catalog, and
// blob pool, backed by an in-memory copy of the file's bytes.
type File struct {
	mm    *mmap.File
	bytes []byte

	Header *Header
	Items  *ItemTable
	Blobs  *BlobPool
}

// Open memory-maps path, copies the whole file into memory, releases the
// file handle and the mapping, and only then parses the copy as a DATA
// container.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datafile: open %s: %w", path, err)
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("datafile: stat %s: %w", path, err)
	}

	mm, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datafile: mmap %s: %w", path, err)
	}

	buf := make([]byte, info.Size())
	_, err = mm.ReadAt(buf, 0)
	mm.Close()
	if err != nil {
		return nil, fmt.Errorf("datafile: read %s: %w", path, err)
	}

	return Parse(buf)
}

// Parse parses an in-memory DATA container, for callers that already
// have the bytes (e.g. from a network fetch or an embedded asset).
func Parse(buf []byte) (*File, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	itemsStart := h.Len()
	items, err := ParseItemTable(buf, h, itemsStart)
	if err != nil {
		return nil, err
	}

	blobs, err := ParseBlobPool(buf, h, itemsStart)
	if err != nil {
		return nil, err
	}

	return &File{bytes: buf, Header: h, Items: items, Blobs: blobs}, nil
}

// Close releases the memory mapping held by the file, if any. Open
// releases its mapping before parsing and Parse never creates one, so
// Files from either have nothing left to release.
func (f *File) Close() error {
	if f.mm == nil {
		return nil
	}
	return f.mm.Close()
}
