// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText decodes a NUL-terminated byte string as UTF-8, falling back
// to Windows-1252 when the bytes are not valid UTF-8. Map files produced
// by older editors on Windows commonly carry legacy-encoded author names
// and image paths that are not themselves valid UTF-8.
func DecodeText(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			raw = raw[:i]
			break
		}
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// EncodeText encodes s as UTF-8 with a trailing NUL terminator, the
// layout every text item in a DATA container uses.
func EncodeText(s string) []byte {
	out := make([]byte, 0, len(s)+1)
	out = append(out, s...)
	return append(out, 0)
}
