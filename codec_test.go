// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundTrip_Minimal covers S1: a minimal valid map encodes and decodes
// back into a structurally equal Map.
func TestRoundTrip_Minimal(t *testing.T) {
	m := minimalMap()

	buf, err := EncodeBytes(m)
	require.NoError(t, err)

	got, err := LoadBytes(buf)
	require.NoError(t, err)

	require.Len(t, got.Groups, 1)
	assert.True(t, got.Groups[0].IsGameGroup)
	require.Len(t, got.Groups[0].Layers, 1)

	gl, ok := got.Groups[0].Layers[0].(*TileLayer)
	require.True(t, ok)
	assert.Equal(t, GameFlagGame, gl.GameFlag)
	assert.Equal(t, uint32(2), gl.Width)
	assert.Equal(t, uint32(2), gl.Height)
	assert.Len(t, gl.Tiles, 4)
}

// TestRoundTrip_AuxLayers covers S1/invariant 3 for the tele, speedup,
// switch and tune kinds (front is covered by TestRoundTrip_FrontLayer):
// each one round-trips its auxiliary array, and the main tile grid is
// read back as the zero-filled blob the encoder writes for these kinds.
func TestRoundTrip_AuxLayers(t *testing.T) {
	cases := []struct {
		name string
		flag int
	}{
		{"tele", GameFlagTele},
		{"speedup", GameFlagSpeedup},
		{"switch", GameFlagSwitch},
		{"tune", GameFlagTune},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := minimalMap()
			gg := m.GameGroup()
			layer := &TileLayer{
				layerBase: layerBase{Name: tc.name},
				Width:     2,
				Height:    2,
				GameFlag:  tc.flag,
				ImageID:   -1,
				Tiles:     make([]Tile, 4),
			}
			switch tc.flag {
			case GameFlagTele:
				layer.TeleTiles = []TeleTile{{Number: 1, Type: 2}, {}, {}, {}}
			case GameFlagSpeedup:
				layer.SpeedupTiles = []SpeedupTile{{Force: 5, MaxSpeed: 6, Type: 1, Angle: 90}, {}, {}, {}}
			case GameFlagSwitch:
				layer.SwitchTiles = []SwitchTile{{Number: 3, Type: 1, Flags: 0, Delay: 2}, {}, {}, {}}
			case GameFlagTune:
				layer.TuneTiles = []TuneTile{{Number: 7, Type: 1}, {}, {}, {}}
			}
			gg.Layers = append(gg.Layers, layer)

			buf, err := EncodeBytes(m)
			require.NoError(t, err)

			got, err := LoadBytes(buf)
			require.NoError(t, err)

			back := got.AuxLayer(tc.flag)
			require.NotNil(t, back)
			assert.Equal(t, make([]Tile, 4), back.Tiles, "data_idx main grid must be zero-filled for aux layers")

			switch tc.flag {
			case GameFlagTele:
				require.Len(t, back.TeleTiles, 4)
				assert.Equal(t, uint8(1), back.TeleTiles[0].Number)
			case GameFlagSpeedup:
				require.Len(t, back.SpeedupTiles, 4)
				assert.Equal(t, uint8(5), back.SpeedupTiles[0].Force)
			case GameFlagSwitch:
				require.Len(t, back.SwitchTiles, 4)
				assert.Equal(t, uint8(3), back.SwitchTiles[0].Number)
			case GameFlagTune:
				require.Len(t, back.TuneTiles, 4)
				assert.Equal(t, uint8(7), back.TuneTiles[0].Number)
			}
		})
	}
}

// TestRoundTrip_FrontLayer checks the front layer's special case: its
// tiles come back from the secondary offset, not data_idx.
func TestRoundTrip_FrontLayer(t *testing.T) {
	m := minimalMap()
	gg := m.GameGroup()
	front := &TileLayer{
		layerBase: layerBase{Name: "Front"},
		Width:     2,
		Height:    2,
		GameFlag:  GameFlagFront,
		ImageID:   -1,
		Tiles:     []Tile{{Index: 9}, {}, {}, {}},
	}
	gg.Layers = append(gg.Layers, front)

	buf, err := EncodeBytes(m)
	require.NoError(t, err)

	got, err := LoadBytes(buf)
	require.NoError(t, err)

	back := got.AuxLayer(GameFlagFront)
	require.NotNil(t, back)
	require.Len(t, back.Tiles, 4)
	assert.Equal(t, uint8(9), back.Tiles[0].Index)
}

// TestRoundTrip_EnvelopeSlicing covers S... envelope-to-envpoint slicing
// survives a round trip.
func TestRoundTrip_EnvelopeSlicing(t *testing.T) {
	m := minimalMap()
	m.Envpoints = []Envpoint{
		{Time: 0, CurveType: 0, Values: [4]int32{1, 2, 3, 4}},
		{Time: 100, CurveType: 1, Values: [4]int32{5, 6, 7, 8}},
	}
	m.Envelopes = []Envelope{
		{Name: "fade", Version: 2, Channels: 4, Synced: true, Start: 0, Count: 2},
	}

	buf, err := EncodeBytes(m)
	require.NoError(t, err)

	got, err := LoadBytes(buf)
	require.NoError(t, err)

	require.Len(t, got.Envelopes, 1)
	pts := got.EnvpointsOf(got.Envelopes[0])
	require.Len(t, pts, 2)
	assert.Equal(t, int32(100), pts[1].Time)
	assert.True(t, got.Envelopes[0].Synced)
}

// TestRoundTrip_Info covers the free-text Info fields, including the
// legacy Settings slot.
func TestRoundTrip_Info(t *testing.T) {
	m := minimalMap()
	author := "tester"
	settings := "tune gravity 0.5"
	m.Info = &Info{Author: &author, Settings: &settings}

	buf, err := EncodeBytes(m)
	require.NoError(t, err)

	got, err := LoadBytes(buf)
	require.NoError(t, err)

	require.NotNil(t, got.Info)
	require.NotNil(t, got.Info.Author)
	assert.Equal(t, "tester", *got.Info.Author)
	require.NotNil(t, got.Info.Settings)
	assert.Equal(t, "tune gravity 0.5", *got.Info.Settings)
	assert.Nil(t, got.Info.Credits)
}

// TestRoundTrip_Image covers both external and embedded images along with
// ImageID references from layers.
func TestRoundTrip_Image(t *testing.T) {
	m := minimalMap()
	m.Images = []Image{
		{External: true, Name: "grass", Width: 16, Height: 16},
		{External: false, Name: "embedded", Width: 1, Height: 1, Data: []byte{1, 2, 3, 4}},
	}
	m.GameLayer().ImageID = 1

	buf, err := EncodeBytes(m)
	require.NoError(t, err)

	got, err := LoadBytes(buf)
	require.NoError(t, err)

	require.Len(t, got.Images, 2)
	assert.True(t, got.Images[0].External)
	assert.False(t, got.Images[1].External)
	assert.Equal(t, []byte{1, 2, 3, 4}, got.Images[1].Data)
	assert.Equal(t, int32(1), got.GameLayer().ImageID)
}

// TestEncodeBytes_RejectsInvalidMap covers S2/S4: a map missing its game
// layer, and a map with two, are both rejected by Validate before encode.
func TestEncodeBytes_RejectsInvalidMap(t *testing.T) {
	t.Run("missing game layer", func(t *testing.T) {
		m := &Map{Groups: []Group{{Name: "Game", IsGameGroup: true}}}
		_, err := EncodeBytes(m)
		assert.ErrorIs(t, err, ErrMissingGameLayer)
	})

	t.Run("two game layers", func(t *testing.T) {
		m := minimalMap()
		gg := m.GameGroup()
		gg.Layers = append(gg.Layers, &TileLayer{
			layerBase: layerBase{Name: "Game2"},
			Width:     2, Height: 2,
			GameFlag: GameFlagGame,
			ImageID:  -1,
			Tiles:    make([]Tile, 4),
		})
		_, err := EncodeBytes(m)
		assert.ErrorIs(t, err, ErrMultipleGameLayers)
	})

	t.Run("missing game group", func(t *testing.T) {
		m := &Map{}
		_, err := EncodeBytes(m)
		assert.ErrorIs(t, err, ErrMissingGameGroup)
	})

	t.Run("mis-sized tile grid", func(t *testing.T) {
		m := minimalMap()
		m.GameLayer().Tiles = make([]Tile, 3)
		_, err := EncodeBytes(m)
		assert.ErrorIs(t, err, ErrInvalidLayerSize)
	})

	t.Run("mis-sized tele aux array", func(t *testing.T) {
		m := withTeleLayer(minimalMap())
		tele := m.AuxLayer(GameFlagTele)
		tele.TeleTiles = make([]TeleTile, 1)
		_, err := EncodeBytes(m)
		assert.ErrorIs(t, err, ErrMissingAuxTiles)
	})

	t.Run("dangling image reference", func(t *testing.T) {
		m := minimalMap()
		m.GameLayer().ImageID = 0
		_, err := EncodeBytes(m)
		assert.ErrorIs(t, err, ErrInvalidImageRef)
	})
}

// TestSave_RejectsWrongExtension covers S6.
func TestSave_RejectsWrongExtension(t *testing.T) {
	err := Save(t.TempDir()+"/out.txt", minimalMap())
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSaveAuto_AppendsExtension(t *testing.T) {
	path := t.TempDir() + "/out"
	err := SaveAuto(path, minimalMap())
	require.NoError(t, err)

	got, err := Load(path + ".map")
	require.NoError(t, err)
	assert.NotNil(t, got.GameLayer())
}

func TestLoadBytes_RejectsBadSignature(t *testing.T) {
	_, err := LoadBytes([]byte("not a map file at all, just junk bytes padded out"))
	assert.Error(t, err)
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	m := minimalMap()
	a := m.Fingerprint()
	b := m.Fingerprint()
	assert.Equal(t, a, b)

	m.GameLayer().Tiles[0].Index = 5
	c := m.Fingerprint()
	assert.NotEqual(t, a, c)
}
