// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package datafile

import "errors"

// Errors returned while parsing or assembling a DATA container. Callers
// typically see these wrapped with additional context via fmt.Errorf.
var (
	ErrBadSignature        = errors.New("datafile: bad signature")
	ErrUnsupportedVersion  = errors.New("datafile: unsupported version")
	ErrTruncated           = errors.New("datafile: truncated file")
	ErrCorruptBlob         = errors.New("datafile: corrupt blob")
	ErrBlobIndexOutOfRange = errors.New("datafile: blob index out of range")
	ErrItemIndexOutOfRange = errors.New("datafile: item index out of range")
)
