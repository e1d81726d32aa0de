// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() *Header {
	return &Header{
		Version:      4,
		FileSize:     1234,
		Swaplen:      1200,
		NumItemTypes: 5,
		NumItems:     10,
		NumRawData:   2,
		ItemSize:     400,
		DataSize:     300,
	}
}

func TestParseHeader_RoundTrip(t *testing.T) {
	h := sampleHeader()
	buf := append([]byte("DATA"), h.Write()...)

	got, err := ParseHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestParseHeader_BadSignature(t *testing.T) {
	h := sampleHeader()
	buf := append([]byte("NOPE"), h.Write()...)

	_, err := ParseHeader(buf)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestParseHeader_UnsupportedVersion(t *testing.T) {
	h := sampleHeader()
	h.Version = 3
	buf := append([]byte("DATA"), h.Write()...)

	_, err := ParseHeader(buf)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestParseHeader_Truncated(t *testing.T) {
	_, err := ParseHeader([]byte("DATA\x04\x00\x00\x00"))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestHeader_Len(t *testing.T) {
	h := &Header{NumItemTypes: 2, NumItems: 3, NumRawData: 1}
	// 36 + 12*2 + 4*(3 + 2*1) = 36 + 24 + 20 = 80
	assert.EqualValues(t, 80, h.Len())
}
