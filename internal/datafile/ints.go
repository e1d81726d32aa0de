// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import "encoding/binary"

// UnpackInts reinterprets an item payload as a little-endian i32 stream,
// the schema every item type uses for its fixed fields.
func UnpackInts(data []byte) []int32 {
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
	}
	return out
}

// PackInts is the inverse of UnpackInts.
func PackInts(ints []int32) []byte {
	out := make([]byte, len(ints)*4)
	for i, v := range ints {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], uint32(v))
	}
	return out
}
