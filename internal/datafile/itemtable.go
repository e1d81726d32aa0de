// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"encoding/binary"
	"fmt"

	"github.com/kelindar/intmap"
)

// ItemTypeRange describes the contiguous run of items belonging to a
// single item type, as stored in the on-disk item-type table.
type ItemTypeRange struct {
	Type  int32
	Start int32
	Count int32
}

// item is a single decoded item: its type, id, and raw payload bytes.
type item struct {
	typ  int32
	id   int32
	data []byte
}

// ItemTable is the catalog of items in a DATA container, grouped by type
// and ordered by (type, id) the way the encoder writes them. Lookups by
// (type, id) go through an intmap keyed on the packed type_and_id value,
// mirroring the teacher's mul.Reader entry lookup.
type ItemTable struct {
	items  []item
	ranges []ItemTypeRange
	lookup *intmap.Map
}

// key packs a (type, id) pair the same way the on-disk preamble does.
func key(typ, id int32) uint32 {
	return uint32(typ)<<16 | uint32(id)
}

// ParseItemTable reads the item-type table, the item-offset table, and
// every item payload. buf must start at the beginning of the file;
// itemsStart is the absolute offset of the first item (Header.Len()).
func ParseItemTable(buf []byte, h *Header, itemsStart int64) (*ItemTable, error) {
	pos := int64(36)
	ranges := make([]ItemTypeRange, h.NumItemTypes)
	for i := range ranges {
		if pos+12 > int64(len(buf)) {
			return nil, fmt.Errorf("%w: item-type table truncated", ErrTruncated)
		}
		ranges[i] = ItemTypeRange{
			Type:  int32(binary.LittleEndian.Uint32(buf[pos : pos+4])),
			Start: int32(binary.LittleEndian.Uint32(buf[pos+4 : pos+8])),
			Count: int32(binary.LittleEndian.Uint32(buf[pos+8 : pos+12])),
		}
		pos += 12
	}

	offsets := make([]int32, h.NumItems)
	for i := range offsets {
		if pos+4 > int64(len(buf)) {
			return nil, fmt.Errorf("%w: item-offset table truncated", ErrTruncated)
		}
		offsets[i] = int32(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
	}

	t := &ItemTable{
		items:  make([]item, h.NumItems),
		ranges: ranges,
		lookup: intmap.New(int(h.NumItems)+1, .95),
	}

	// Find which type each absolute item index belongs to, so we can
	// record (type, id) for every parsed item even though the preamble
	// also carries this redundantly.
	typeOf := func(index int32) int32 {
		for _, r := range ranges {
			if index >= r.Start && index < r.Start+r.Count {
				return r.Type
			}
		}
		return -1
	}

	for i := int32(0); i < h.NumItems; i++ {
		start := itemsStart + int64(offsets[i])
		if start+8 > int64(len(buf)) {
			return nil, fmt.Errorf("%w: item %d preamble truncated", ErrTruncated, i)
		}

		typeAndID := int32(binary.LittleEndian.Uint32(buf[start : start+4]))
		size := int32(binary.LittleEndian.Uint32(buf[start+4 : start+8]))
		payloadStart := start + 8
		if payloadStart+int64(size) > int64(len(buf)) {
			return nil, fmt.Errorf("%w: item %d payload truncated", ErrTruncated, i)
		}

		typ := typeOf(i)
		id := typeAndID & 0xFFFF
		if typ == -1 {
			typ = typeAndID >> 16
		}

		t.items[i] = item{typ: typ, id: id, data: buf[payloadStart : payloadStart+int64(size)]}
		t.lookup.Store(key(typ, id), uint32(i))
	}

	return t, nil
}

// Find returns the raw payload bytes for the item with the given
// (type, id), or ErrItemIndexOutOfRange if no such item exists.
func (t *ItemTable) Find(typ, id int32) ([]byte, error) {
	idx, ok := t.lookup.Load(key(typ, id))
	if !ok {
		return nil, fmt.Errorf("%w: type=%d id=%d", ErrItemIndexOutOfRange, typ, id)
	}
	return t.items[idx].data, nil
}

// Range returns the (start, count) of items belonging to typ, or
// (0, 0, false) if the type is absent.
func (t *ItemTable) Range(typ int32) (start, count int32, ok bool) {
	for _, r := range t.ranges {
		if r.Type == typ {
			return r.Start, r.Count, true
		}
	}
	return 0, 0, false
}

// Count returns the total number of items in the table.
func (t *ItemTable) Count() int {
	return len(t.items)
}
