// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringToInts_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		s      string
		length int
	}{
		{"empty", "", 3},
		{"short", "Game", 3},
		{"exact fit minus terminator", "Quads layer", 3},
		{"envelope length", "Background", 8},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ints := StringToInts(c.s, c.length)
			assert.Len(t, ints, c.length)
			assert.Equal(t, c.s, IntsToString(ints))
		})
	}
}

func TestStringToInts_AlwaysNulTerminated(t *testing.T) {
	// A name exactly filling the buffer still leaves room for termination
	// because the final int's low byte is masked off.
	ints := StringToInts("abcdefghijkl", 3)
	last := uint32(ints[2])
	assert.Zero(t, last&0xff)
}

func TestStringToInts_HighBytesSurviveRoundTrip(t *testing.T) {
	s := string([]byte{0xFF, 0x00 + 1, 0x80, 0x7F})
	ints := StringToInts(s[:3], 3)
	assert.Equal(t, s[:3], IntsToString(ints))
}
