// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Command mapcheck loads a map file, validates its structural
// invariants, and reports gameplay-level issues the structural
// validator can't see: a missing Begin/End line and unpaired
// tele-in/tele-out tiles.
package main

import (
	"fmt"
	"os"

	mapfile "github.com/kelindar/ddmap"
)

// Tile indices for the gameplay markers map-check cares about; these
// are map-design conventions, not format-level constants, so they live
// here rather than in the classifier.
const (
	tileBegin   = 33
	tileEnd     = 34
	tileTeleIn  = 26
	tileTeleOut = 27
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: mapcheck <path.map>")
		os.Exit(2)
	}

	violations, err := check(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mapcheck: %v\n", err)
		os.Exit(1)
	}

	for _, v := range violations {
		fmt.Println(v)
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
}

func check(path string) ([]string, error) {
	m, err := mapfile.Load(path)
	if err != nil {
		return nil, err
	}
	if err := mapfile.Validate(m); err != nil {
		return nil, err
	}

	var violations []string

	game := m.GameLayer()
	if game == nil {
		return nil, fmt.Errorf("no game layer")
	}

	var begin, end int
	for _, t := range game.Tiles {
		switch t.Index {
		case tileBegin:
			begin++
		case tileEnd:
			end++
		}
	}
	if front := m.AuxLayer(mapfile.GameFlagFront); front != nil {
		for _, t := range front.Tiles {
			switch t.Index {
			case tileBegin:
				begin++
			case tileEnd:
				end++
			}
		}
	}
	if begin == 0 {
		violations = append(violations, "no Begin line")
	}
	if end == 0 {
		violations = append(violations, "no End line")
	}

	violations = append(violations, checkTelePairing(m)...)

	return violations, nil
}

// checkTelePairing reports every tele number that appears as an
// out-tile without a matching in-tile, or vice versa.
func checkTelePairing(m *mapfile.Map) []string {
	tele := m.AuxLayer(mapfile.GameFlagTele)
	if tele == nil {
		return nil
	}

	in := map[uint8]bool{}
	out := map[uint8]bool{}
	for _, t := range tele.TeleTiles {
		switch t.Type {
		case tileTeleIn:
			in[t.Number] = true
		case tileTeleOut:
			out[t.Number] = true
		}
	}

	var violations []string
	for n := range out {
		if !in[n] {
			violations = append(violations, fmt.Sprintf("no tele-in for tele %d", n))
		}
	}
	for n := range in {
		if !out[n] {
			violations = append(violations, fmt.Sprintf("no tele-out for tele %d", n))
		}
	}
	return violations
}
