// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

// minimalMap returns the smallest Map that satisfies Validate: one game
// group holding one 2x2 game layer.
func minimalMap() *Map {
	return &Map{
		Groups: []Group{
			{
				Name:        "Game",
				IsGameGroup: true,
				Layers: []Layer{
					&TileLayer{
						layerBase: layerBase{Name: "Game"},
						Width:     2,
						Height:    2,
						GameFlag:  GameFlagGame,
						ImageID:   -1,
						Tiles:     make([]Tile, 4),
					},
				},
			},
		},
	}
}

// withTeleLayer returns m with an additional 2x2 tele layer appended to the
// game group.
func withTeleLayer(m *Map) *Map {
	gg := m.GameGroup()
	gg.Layers = append(gg.Layers, &TileLayer{
		layerBase: layerBase{Name: "Tele"},
		Width:     2,
		Height:    2,
		GameFlag:  GameFlagTele,
		ImageID:   -1,
		Tiles:     make([]Tile, 4),
		TeleTiles: make([]TeleTile, 4),
	})
	return m
}
