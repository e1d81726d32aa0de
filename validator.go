// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import "fmt"

// Validate checks a Map against the invariants a well-formed map file must
// satisfy before it can be encoded: exactly one game group holding exactly
// one game layer, at most one layer per auxiliary game-flag category, every
// tile layer's primary grid sized Width*Height, every auxiliary array sized
// to match, every image and envelope reference resolving. Load already
// applies the group/layer membership rules while parsing; Validate re-checks
// them here because a Map assembled by hand never goes through Load.
func Validate(m *Map) error {
	if m == nil {
		return fmt.Errorf("%w: nil map", ErrMissingGameGroup)
	}

	if err := validateGameMembership(m); err != nil {
		return err
	}
	if err := validateTileLayerSizes(m); err != nil {
		return err
	}
	if err := validateImageRefs(m); err != nil {
		return err
	}
	if err := validateEnvelopeSlices(m); err != nil {
		return err
	}
	return nil
}

func validateGameMembership(m *Map) error {
	var gameGroups int
	var gameLayers int
	counts := map[int]int{}

	for _, g := range m.Groups {
		if g.IsGameGroup {
			gameGroups++
		}
		for _, l := range g.Layers {
			tl, ok := l.(*TileLayer)
			if !ok || tl.GameFlag == GameFlagNone {
				continue
			}
			if !g.IsGameGroup {
				return &MapError{Err: ErrGameLayerOutsideGameGroup, Group: g.Name, Layer: tl.Name}
			}
			counts[tl.GameFlag]++
			if tl.GameFlag == GameFlagGame {
				gameLayers++
			}
		}
	}

	switch {
	case gameGroups == 0:
		return ErrMissingGameGroup
	case gameGroups > 1:
		return ErrMultipleGameGroups
	case gameLayers == 0:
		return ErrMissingGameLayer
	case gameLayers > 1:
		return ErrMultipleGameLayers
	}

	for flag, sentinel := range map[int]error{
		GameFlagTele:    ErrMultipleTeleLayers,
		GameFlagSpeedup: ErrMultipleSpeedupLayers,
		GameFlagFront:   ErrMultipleFrontLayers,
		GameFlagSwitch:  ErrMultipleSwitchLayers,
		GameFlagTune:    ErrMultipleTuneLayers,
	} {
		if counts[flag] > 1 {
			return sentinel
		}
	}
	return nil
}

func validateTileLayerSizes(m *Map) error {
	for _, g := range m.Groups {
		for _, l := range g.Layers {
			tl, ok := l.(*TileLayer)
			if !ok {
				continue
			}
			wh := int(tl.Width) * int(tl.Height)

			if tl.GameFlag != GameFlagFront {
				if len(tl.Tiles) != wh {
					return &MapError{Err: ErrInvalidLayerSize, Group: g.Name, Layer: tl.Name}
				}
			}

			var auxLen, want int
			switch tl.GameFlag {
			case GameFlagTele:
				auxLen, want = len(tl.TeleTiles), wh
			case GameFlagSpeedup:
				auxLen, want = len(tl.SpeedupTiles), wh
			case GameFlagFront:
				auxLen, want = len(tl.Tiles), wh
			case GameFlagSwitch:
				auxLen, want = len(tl.SwitchTiles), wh
			case GameFlagTune:
				auxLen, want = len(tl.TuneTiles), wh
			default:
				continue
			}
			if auxLen != want {
				return &MapError{Err: ErrMissingAuxTiles, Group: g.Name, Layer: tl.Name}
			}
		}
	}
	return nil
}
