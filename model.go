// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package mapfile reads, validates, and writes binary map files for a
// 2D tile-based game: a container of typed items (info, images,
// envelopes, groups, layers, envpoints) plus a pool of independently
// compressed raw-data blobs.
package mapfile

// Game-flag values a TileLayer's GameFlag field may carry. Exactly one
// tile layer in the whole map may carry GameFlagGame, and at most one
// tile layer may carry each of the auxiliary flags (Tele, Speedup,
// Front, Switch, Tune); any number may carry GameFlagNone.
const (
	GameFlagNone    = 0
	GameFlagGame    = 1
	GameFlagTele    = 2
	GameFlagSpeedup = 4
	GameFlagFront   = 8
	GameFlagSwitch  = 16
	GameFlagTune    = 32
)

// Layer type IDs as they appear on disk.
const (
	LayerTypeTiles  = 2
	LayerTypeQuads  = 3
	LayerTypeSounds = 10
)

// Item type IDs as they appear on disk.
const (
	ItemTypeVersion  = 0
	ItemTypeInfo     = 1
	ItemTypeImage    = 2
	ItemTypeEnvelope = 3
	ItemTypeGroup    = 4
	ItemTypeLayer    = 5
	ItemTypeEnvpoint = 6
)

// Map is the fully decoded logical map: optional metadata, an ordered
// list of images, an ordered list of groups (each holding its own
// ordered list of layers), an ordered list of envelopes, and a flat
// ordered list of envpoints that envelopes slice into. There are no
// pointer cross-references — every link between parts of the Model is
// an index, which keeps clone and diff trivial.
type Map struct {
	Info      *Info
	Images    []Image
	Groups    []Group
	Envelopes []Envelope
	Envpoints []Envpoint
}

// Info carries free-text metadata. Each field is optional; a nil
// pointer means the field was absent on disk. Settings mirrors the
// fifth index the reference writer always emits alongside the other
// four, even though the reference reader's own decode path for it is
// unreachable dead code (see DESIGN.md).
type Info struct {
	Author     *string
	MapVersion *string
	Credits    *string
	License    *string
	Settings   *string
}

// Image is either external (loaded from a shared mapres directory by
// name, Data absent) or embedded (Data present, sized Width*Height*4
// RGBA bytes).
type Image struct {
	External bool
	Name     string
	Width    uint32
	Height   uint32
	Data     []byte
}

// Group is an ordered collection of layers sharing a common transform
// (offset, parallax) and an optional clip rectangle. Exactly one group
// in a valid Map has IsGameGroup set.
type Group struct {
	Name        string
	OffsetX     int32
	OffsetY     int32
	ParallaxX   int32
	ParallaxY   int32
	UseClipping bool
	ClipX       int32
	ClipY       int32
	ClipW       int32
	ClipH       int32
	Layers      []Layer
	IsGameGroup bool
}

// Layer is implemented by TileLayer, QuadLayer, and SoundLayer.
type Layer interface {
	// Detail reports whether the layer is marked detail-only (LAYERFLAG_DETAIL).
	Detail() bool
	// LayerName returns the layer's optional display name.
	LayerName() string
}

// layerBase holds the fields common to every layer variant.
type layerBase struct {
	IsDetail bool
	Name     string
}

func (l layerBase) Detail() bool      { return l.IsDetail }
func (l layerBase) LayerName() string { return l.Name }

// TileLayer is a grid of w*h tiles plus, depending on GameFlag, at most
// one auxiliary per-cell array.
type TileLayer struct {
	layerBase

	Width          uint32
	Height         uint32
	Color          [4]uint8
	ColorEnv       int32
	ColorEnvOffset int32
	ImageID        int32
	GameFlag       int
	Tiles          []Tile

	TeleTiles    []TeleTile
	SpeedupTiles []SpeedupTile
	SwitchTiles  []SwitchTile
	TuneTiles    []TuneTile
}

// Tile is a single cell of a tile layer's primary grid.
type Tile struct {
	Index uint8
	Flags uint8
	Skip  uint8
	// Coords is the reserved fourth byte of the on-disk 4-byte tile
	// record; its meaning is opaque to this codec.
	Coords uint8
}

// TeleTile is one cell of a tele layer's 2-byte-per-cell auxiliary array.
type TeleTile struct {
	Number uint8
	Type   uint8
}

// SpeedupTile is one cell of a speedup layer's 6-byte-per-cell auxiliary array.
type SpeedupTile struct {
	Force    uint8
	MaxSpeed uint8
	Type     uint8
	Angle    int16
}

// SwitchTile is one cell of a switch layer's 4-byte-per-cell auxiliary array.
type SwitchTile struct {
	Number uint8
	Type   uint8
	Flags  uint8
	Delay  uint8
}

// TuneTile is one cell of a tune layer's 2-byte-per-cell auxiliary array.
type TuneTile struct {
	Number uint8
	Type   uint8
}

// QuadLayer is an ordered list of opaque 152-byte quad records plus an
// optional image reference.
type QuadLayer struct {
	layerBase

	ImageID int32
	Quads   []Quad
}

// Quad is a single 152-byte quad record, passed through verbatim; its
// internal layout (four corner points, colors, texture coordinates,
// position/rotation envelope reference) is opaque to this codec.
type Quad struct {
	Data [152]byte
}

// SoundLayer references a pool of opaque, unparsed sound sample data.
type SoundLayer struct {
	layerBase

	NumSources int32
}

// Envelope names a version, a channel count, whether it wraps (synced),
// and the contiguous slice of Map.Envpoints it animates over.
type Envelope struct {
	Name     string
	Version  int32
	Channels int32
	Synced   bool
	Start    int32
	Count    int32
}

// Envpoint is a single keyframe of an envelope's animation curve.
type Envpoint struct {
	Time      int32
	CurveType int32
	Values    [4]int32
}

// GameGroup returns the one group with IsGameGroup set, or nil if the
// Map has none.
func (m *Map) GameGroup() *Group {
	for i := range m.Groups {
		if m.Groups[i].IsGameGroup {
			return &m.Groups[i]
		}
	}
	return nil
}

// GameLayer returns the TileLayer with GameFlagGame inside the game
// group, or nil if none exists.
func (m *Map) GameLayer() *TileLayer {
	gg := m.GameGroup()
	if gg == nil {
		return nil
	}
	for _, l := range gg.Layers {
		if tl, ok := l.(*TileLayer); ok && tl.GameFlag == GameFlagGame {
			return tl
		}
	}
	return nil
}

// AuxLayer returns the game group's tile layer carrying the given
// GameFlag (one of the Tele/Speedup/Switch/Tune/Front constants), or nil.
func (m *Map) AuxLayer(flag int) *TileLayer {
	gg := m.GameGroup()
	if gg == nil {
		return nil
	}
	for _, l := range gg.Layers {
		if tl, ok := l.(*TileLayer); ok && tl.GameFlag == flag {
			return tl
		}
	}
	return nil
}

// EnvpointsOf returns the slice of the Map's envpoints that e refers to,
// or nil if that slice is out of range.
func (m *Map) EnvpointsOf(e Envelope) []Envpoint {
	if e.Start < 0 || e.Count < 0 || int(e.Start+e.Count) > len(m.Envpoints) {
		return nil
	}
	return m.Envpoints[e.Start : e.Start+e.Count]
}
