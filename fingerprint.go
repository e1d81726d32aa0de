// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import "github.com/cespare/xxhash/v2"

// Fingerprint hashes the Map's canonical re-encoding, giving callers a
// cheap way to detect whether two in-memory Maps (or a Map before and
// after a round-trip) carry the same content without a deep comparison.
// It returns 0 if the Map fails to encode.
func (m *Map) Fingerprint() uint64 {
	buf, err := EncodeBytes(m)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(buf)
}
