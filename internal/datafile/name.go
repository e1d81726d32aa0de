// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

// StringToInts packs s into exactly length packed i32 values, the
// convention DDNet/teeworlds map files use for fixed-width names (3 ints
// for layer/group names, 8 for envelope names). Every byte is biased by
// +128 so that raw byte values above 0x7F survive the round trip, and the
// final int's low byte is masked off to guarantee NUL-termination.
func StringToInts(s string, length int) []int32 {
	out := make([]int32, length)
	for i := 0; i < length; i++ {
		var b [4]byte
		for j := 0; j < 4; j++ {
			k := i*4 + j
			if k < len(s) {
				b[j] = s[k]
			}
		}
		out[i] = int32(uint32(b[0]+128)<<24 | uint32(b[1]+128)<<16 | uint32(b[2]+128)<<8 | uint32(b[3]+128))
	}
	if length > 0 {
		out[length-1] &^= 0xff
	}
	return out
}

// IntsToString reverses StringToInts, stopping at the first NUL byte. The
// final byte is always treated as the terminator, matching the masked low
// byte StringToInts writes.
func IntsToString(ints []int32) string {
	buf := make([]byte, 0, len(ints)*4)
	for _, v := range ints {
		u := uint32(v)
		buf = append(buf,
			byte(u>>24)-128,
			byte(u>>16)-128,
			byte(u>>8)-128,
			byte(u)-128,
		)
	}
	if len(buf) > 0 {
		buf[len(buf)-1] = 0
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
