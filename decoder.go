// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"fmt"

	"github.com/kelindar/ddmap/internal/datafile"
)

// tileLayerBaseSize is the number of packed i32s in a tile layer item up
// to and including its 3-i32 name: 3 (layer prefix) + 12 (tile layer
// fields) + 3 (name) = 18. Auxiliary tile-blob indices, when present,
// follow immediately after this offset.
const tileLayerBaseSize = 18

// Load reads and decodes the map file at path.
func Load(path string) (*Map, error) {
	df, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}
	defer df.Close()

	return decode(df)
}

// LoadBytes decodes a map file already held in memory.
func LoadBytes(buf []byte) (*Map, error) {
	df, err := datafile.Parse(buf)
	if err != nil {
		return nil, err
	}
	return decode(df)
}

// blobOrNil resolves idx to its decompressed bytes, treating any
// negative index as "absent" the way every optional blob reference in
// the format does.
func blobOrNil(df *datafile.File, idx int32) ([]byte, error) {
	if idx < 0 {
		return nil, nil
	}
	return df.Blobs.Blob(idx)
}

// textOrNil decompresses and decodes a NUL-terminated text blob,
// returning nil for a negative index.
func textOrNil(df *datafile.File, idx int32) (*string, error) {
	raw, err := blobOrNil(df, idx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	s := datafile.DecodeText(raw)
	return &s, nil
}

// at safely reads ints[idx], mirroring Python's out-of-range-safe list
// slicing: the reference decoder relies on this to treat an item whose
// on-disk payload is shorter than the current format version as simply
// missing trailing fields rather than an error.
func at(ints []int32, idx int) (int32, bool) {
	if idx < 0 || idx >= len(ints) {
		return 0, false
	}
	return ints[idx], true
}

// nameAt decodes the 3-i32 packed name starting at start, returning ""
// if the item's payload isn't long enough to carry one.
func nameAt(ints []int32, start int) string {
	if start+3 > len(ints) {
		return ""
	}
	return datafile.IntsToString(ints[start : start+3])
}

func decode(df *datafile.File) (*Map, error) {
	if err := checkVersionItem(df); err != nil {
		return nil, err
	}

	m := &Map{}

	info, err := decodeInfo(df)
	if err != nil {
		return nil, err
	}
	m.Info = info

	images, err := decodeImages(df)
	if err != nil {
		return nil, err
	}
	m.Images = images

	groups, err := decodeGroups(df)
	if err != nil {
		return nil, err
	}
	m.Groups = groups

	envpoints, err := decodeEnvpoints(df)
	if err != nil {
		return nil, err
	}
	m.Envpoints = envpoints

	envelopes, err := decodeEnvelopes(df)
	if err != nil {
		return nil, err
	}
	m.Envelopes = envelopes

	if err := validateImageRefs(m); err != nil {
		return nil, err
	}
	if err := validateEnvelopeSlices(m); err != nil {
		return nil, err
	}

	return m, nil
}

func checkVersionItem(df *datafile.File) error {
	raw, err := df.Items.Find(ItemTypeVersion, 0)
	if err != nil {
		return fmt.Errorf("%w: no version item", ErrUnsupportedVersion)
	}
	ints := datafile.UnpackInts(raw)
	if len(ints) < 1 || ints[0] != 1 {
		return fmt.Errorf("%w: version item", ErrUnsupportedVersion)
	}
	return nil
}

func decodeInfo(df *datafile.File) (*Info, error) {
	raw, err := df.Items.Find(ItemTypeInfo, 0)
	if err != nil {
		return nil, nil
	}
	ints := datafile.UnpackInts(raw)

	// ints[0] is the item's own version field; the five text-blob
	// indices follow it.
	field := func(idx int) (*string, error) {
		v, ok := at(ints, idx+1)
		if !ok || v < 0 {
			return nil, nil
		}
		return textOrNil(df, v)
	}

	author, err := field(0)
	if err != nil {
		return nil, err
	}
	mapVersion, err := field(1)
	if err != nil {
		return nil, err
	}
	credits, err := field(2)
	if err != nil {
		return nil, err
	}
	license, err := field(3)
	if err != nil {
		return nil, err
	}
	settings, err := field(4)
	if err != nil {
		return nil, err
	}

	return &Info{
		Author:     author,
		MapVersion: mapVersion,
		Credits:    credits,
		License:    license,
		Settings:   settings,
	}, nil
}

func decodeImages(df *datafile.File) ([]Image, error) {
	_, count, ok := df.Items.Range(ItemTypeImage)
	if !ok {
		return nil, nil
	}

	images := make([]Image, 0, count)
	for i := int32(0); i < count; i++ {
		raw, err := df.Items.Find(ItemTypeImage, i)
		if err != nil {
			return nil, err
		}
		ints := datafile.UnpackInts(raw)
		if len(ints) < 6 {
			return nil, fmt.Errorf("%w: image %d", ErrTruncatedFile, i)
		}

		width, height, external, nameIdx, dataIdx := ints[1], ints[2], ints[3], ints[4], ints[5]

		nameRaw, err := blobOrNil(df, nameIdx)
		if err != nil {
			return nil, err
		}
		name := ""
		if nameRaw != nil {
			name = datafile.DecodeText(nameRaw)
		}

		var data []byte
		if external == 0 {
			data, err = blobOrNil(df, dataIdx)
			if err != nil {
				return nil, err
			}
		}

		images = append(images, Image{
			External: external != 0,
			Name:     name,
			Width:    uint32(width),
			Height:   uint32(height),
			Data:     data,
		})
	}
	return images, nil
}

// gameMembership tracks which auxiliary tile-layer kinds a group has
// already seen, enforcing the map's "at most one of each" invariant
// during decode, the way the reference reader does inline rather than
// deferring to a separate validation pass.
type gameMembership struct {
	hasGameLayer    bool
	hasTeleLayer    bool
	hasSpeedupLayer bool
	hasFrontLayer   bool
	hasSwitchLayer  bool
	hasTuneLayer    bool
}

func decodeGroups(df *datafile.File) ([]Group, error) {
	_, count, ok := df.Items.Range(ItemTypeGroup)
	if !ok {
		return nil, nil
	}

	groups := make([]Group, 0, count)
	hasGameGroup := false

	for i := int32(0); i < count; i++ {
		raw, err := df.Items.Find(ItemTypeGroup, i)
		if err != nil {
			return nil, err
		}
		ints := datafile.UnpackInts(raw)
		if len(ints) < 12 {
			return nil, fmt.Errorf("%w: group %d", ErrTruncatedFile, i)
		}

		version := ints[0]
		offsetX, offsetY := ints[1], ints[2]
		parallaxX, parallaxY := ints[3], ints[4]
		startLayer, numLayers := ints[5], ints[6]
		useClipping := ints[7]
		clipX, clipY, clipW, clipH := ints[8], ints[9], ints[10], ints[11]

		name := ""
		if version >= 3 {
			name = nameAt(ints, 12)
		}

		layers := make([]Layer, 0, numLayers)
		gameFlags := make([]int, 0, numLayers)
		layerVersions := make([]int32, 0, numLayers)

		for j := int32(0); j < numLayers; j++ {
			layerRaw, err := df.Items.Find(ItemTypeLayer, startLayer+j)
			if err != nil {
				return nil, err
			}
			layer, gameFlag, layerVersion, err := decodeLayer(df, layerRaw)
			if err != nil {
				return nil, err
			}
			layers = append(layers, layer)
			gameFlags = append(gameFlags, gameFlag)
			layerVersions = append(layerVersions, layerVersion)
		}

		isGameGroup := false
		for j, flag := range gameFlags {
			if flag == 0 {
				continue
			}
			if name == "Game" || (layerVersions[j] < 3 && flag != 0) {
				isGameGroup = true
			}
		}

		if isGameGroup {
			if hasGameGroup {
				return nil, fmt.Errorf("%w", ErrMultipleGameGroups)
			}
			hasGameGroup = true
		}

		var gm gameMembership
		for _, flag := range gameFlags {
			if flag != 0 && !isGameGroup {
				return nil, fmt.Errorf("%w", ErrGameLayerOutsideGameGroup)
			}
			switch flag {
			case GameFlagNone:
			case GameFlagGame:
				if gm.hasGameLayer {
					return nil, fmt.Errorf("%w", ErrMultipleGameLayers)
				}
				gm.hasGameLayer = true
			case GameFlagTele:
				if gm.hasTeleLayer {
					return nil, fmt.Errorf("%w", ErrMultipleTeleLayers)
				}
				gm.hasTeleLayer = true
			case GameFlagSpeedup:
				if gm.hasSpeedupLayer {
					return nil, fmt.Errorf("%w", ErrMultipleSpeedupLayers)
				}
				gm.hasSpeedupLayer = true
			case GameFlagFront:
				if gm.hasFrontLayer {
					return nil, fmt.Errorf("%w", ErrMultipleFrontLayers)
				}
				gm.hasFrontLayer = true
			case GameFlagSwitch:
				if gm.hasSwitchLayer {
					return nil, fmt.Errorf("%w", ErrMultipleSwitchLayers)
				}
				gm.hasSwitchLayer = true
			case GameFlagTune:
				if gm.hasTuneLayer {
					return nil, fmt.Errorf("%w", ErrMultipleTuneLayers)
				}
				gm.hasTuneLayer = true
			default:
				return nil, fmt.Errorf("%w: %d", ErrUnknownGameFlag, flag)
			}
		}

		if isGameGroup && !gm.hasGameLayer {
			return nil, fmt.Errorf("%w", ErrMissingGameLayer)
		}

		groups = append(groups, Group{
			Name:        name,
			OffsetX:     offsetX,
			OffsetY:     offsetY,
			ParallaxX:   parallaxX,
			ParallaxY:   parallaxY,
			UseClipping: useClipping != 0,
			ClipX:       clipX,
			ClipY:       clipY,
			ClipW:       clipW,
			ClipH:       clipH,
			Layers:      layers,
			IsGameGroup: isGameGroup,
		})
	}

	if !hasGameGroup {
		return nil, fmt.Errorf("%w", ErrMissingGameGroup)
	}

	return groups, nil
}

// decodeLayer dispatches on the layer's type field and returns the
// decoded Layer along with the game-flag and layer-version needed by the
// caller to resolve game-group membership (0 for non-tile layers).
func decodeLayer(df *datafile.File, raw []byte) (Layer, int, int32, error) {
	ints := datafile.UnpackInts(raw)
	if len(ints) < 3 {
		return nil, 0, 0, fmt.Errorf("%w: layer prefix", ErrTruncatedFile)
	}
	typ := ints[1]
	detail := ints[2] != 0

	switch typ {
	case LayerTypeTiles:
		return decodeTileLayer(df, ints, detail)
	case LayerTypeQuads:
		l, err := decodeQuadLayer(df, ints, detail)
		return l, 0, 0, err
	case LayerTypeSounds:
		l, err := decodeSoundLayer(ints, detail)
		return l, 0, 0, err
	default:
		return nil, 0, 0, fmt.Errorf("%w: layer type %d", ErrUnknownGameFlag, typ)
	}
}

func decodeTileLayer(df *datafile.File, ints []int32, detail bool) (Layer, int, int32, error) {
	if len(ints) < 15 {
		return nil, 0, 0, fmt.Errorf("%w: tile layer", ErrTruncatedFile)
	}

	version := ints[3]
	width, height := ints[4], ints[5]
	gameFlag := int(ints[6])
	color := [4]uint8{uint8(ints[7]), uint8(ints[8]), uint8(ints[9]), uint8(ints[10])}
	colorEnv, colorEnvOffset := ints[11], ints[12]
	imageID := ints[13]
	dataIdx := ints[14]

	name := nameAt(ints, 15)

	wh := int(width) * int(height)

	var primaryIdx int32
	if gameFlag == GameFlagFront {
		v, ok := at(ints, tileLayerBaseSize+2)
		if !ok {
			return nil, 0, 0, fmt.Errorf("%w: front layer missing tile field", ErrMissingAuxTiles)
		}
		primaryIdx = v
	} else {
		primaryIdx = dataIdx
	}

	tileData, err := blobOrNil(df, primaryIdx)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(tileData) != wh*4 {
		if gameFlag == GameFlagFront {
			return nil, 0, 0, fmt.Errorf("%w: front layer", ErrMissingAuxTiles)
		}
		return nil, 0, 0, fmt.Errorf("%w: tile layer", ErrInvalidLayerSize)
	}
	tiles := decodeTiles(tileData)

	layer := &TileLayer{
		layerBase:      layerBase{IsDetail: detail, Name: name},
		Width:          uint32(width),
		Height:         uint32(height),
		Color:          color,
		ColorEnv:       colorEnv,
		ColorEnvOffset: colorEnvOffset,
		ImageID:        imageID,
		GameFlag:       gameFlag,
		Tiles:          tiles,
	}

	teleOffset, speedupOffset := tileLayerBaseSize, tileLayerBaseSize+1
	if version < 3 {
		teleOffset, speedupOffset = tileLayerBaseSize-3, tileLayerBaseSize-2
	}

	switch gameFlag {
	case GameFlagTele:
		idx, ok := at(ints, teleOffset)
		if !ok || idx < 0 {
			return nil, 0, 0, fmt.Errorf("%w: tele layer", ErrMissingAuxTiles)
		}
		raw, err := blobOrNil(df, idx)
		if err != nil {
			return nil, 0, 0, err
		}
		if len(raw) != wh*2 {
			return nil, 0, 0, fmt.Errorf("%w: tele layer", ErrInvalidLayerSize)
		}
		layer.TeleTiles = decodeTeleTiles(raw)
	case GameFlagSpeedup:
		idx, ok := at(ints, speedupOffset)
		if !ok || idx < 0 {
			return nil, 0, 0, fmt.Errorf("%w: speedup layer", ErrMissingAuxTiles)
		}
		raw, err := blobOrNil(df, idx)
		if err != nil {
			return nil, 0, 0, err
		}
		if len(raw) != wh*6 {
			return nil, 0, 0, fmt.Errorf("%w: speedup layer", ErrInvalidLayerSize)
		}
		layer.SpeedupTiles = decodeSpeedupTiles(raw)
	case GameFlagSwitch:
		idx, ok := at(ints, tileLayerBaseSize+3)
		if !ok || idx < 0 {
			return nil, 0, 0, fmt.Errorf("%w: switch layer", ErrMissingAuxTiles)
		}
		raw, err := blobOrNil(df, idx)
		if err != nil {
			return nil, 0, 0, err
		}
		if len(raw) != wh*4 {
			return nil, 0, 0, fmt.Errorf("%w: switch layer", ErrInvalidLayerSize)
		}
		layer.SwitchTiles = decodeSwitchTiles(raw)
	case GameFlagTune:
		idx, ok := at(ints, tileLayerBaseSize+4)
		if !ok || idx < 0 {
			return nil, 0, 0, fmt.Errorf("%w: tune layer", ErrMissingAuxTiles)
		}
		raw, err := blobOrNil(df, idx)
		if err != nil {
			return nil, 0, 0, err
		}
		if len(raw) != wh*2 {
			return nil, 0, 0, fmt.Errorf("%w: tune layer", ErrInvalidLayerSize)
		}
		layer.TuneTiles = decodeTuneTiles(raw)
	case GameFlagGame, GameFlagFront, GameFlagNone:
		// no auxiliary array
	default:
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrUnknownGameFlag, gameFlag)
	}

	return layer, gameFlag, version, nil
}

func decodeTiles(raw []byte) []Tile {
	tiles := make([]Tile, len(raw)/4)
	for i := range tiles {
		tiles[i] = Tile{
			Index:  raw[i*4],
			Flags:  raw[i*4+1],
			Skip:   raw[i*4+2],
			Coords: raw[i*4+3],
		}
	}
	return tiles
}

func decodeTeleTiles(raw []byte) []TeleTile {
	tiles := make([]TeleTile, len(raw)/2)
	for i := range tiles {
		tiles[i] = TeleTile{Number: raw[i*2], Type: raw[i*2+1]}
	}
	return tiles
}

func decodeSpeedupTiles(raw []byte) []SpeedupTile {
	tiles := make([]SpeedupTile, len(raw)/6)
	for i := range tiles {
		b := raw[i*6 : i*6+6]
		tiles[i] = SpeedupTile{
			Force:    b[0],
			MaxSpeed: b[1],
			Type:     b[2],
			Angle:    int16(uint16(b[3]) | uint16(b[4])<<8),
		}
	}
	return tiles
}

func decodeSwitchTiles(raw []byte) []SwitchTile {
	tiles := make([]SwitchTile, len(raw)/4)
	for i := range tiles {
		b := raw[i*4 : i*4+4]
		tiles[i] = SwitchTile{Number: b[0], Type: b[1], Flags: b[2], Delay: b[3]}
	}
	return tiles
}

func decodeTuneTiles(raw []byte) []TuneTile {
	tiles := make([]TuneTile, len(raw)/2)
	for i := range tiles {
		tiles[i] = TuneTile{Number: raw[i*2], Type: raw[i*2+1]}
	}
	return tiles
}

func decodeQuadLayer(df *datafile.File, ints []int32, detail bool) (Layer, error) {
	if len(ints) < 7 {
		return nil, fmt.Errorf("%w: quad layer", ErrTruncatedFile)
	}
	version := ints[3]
	dataIdx := ints[5]
	imageID := ints[6]

	name := ""
	if version >= 2 {
		name = nameAt(ints, 7)
	}

	raw, err := blobOrNil(df, dataIdx)
	if err != nil {
		return nil, err
	}
	quads := make([]Quad, len(raw)/152)
	for i := range quads {
		copy(quads[i].Data[:], raw[i*152:i*152+152])
	}

	return &QuadLayer{
		layerBase: layerBase{IsDetail: detail, Name: name},
		ImageID:   imageID,
		Quads:     quads,
	}, nil
}

func decodeSoundLayer(ints []int32, detail bool) (Layer, error) {
	if len(ints) < 7 {
		return nil, fmt.Errorf("%w: sound layer", ErrTruncatedFile)
	}
	version := ints[3]
	if version != 2 {
		return nil, fmt.Errorf("%w: sound layer version %d", ErrUnsupportedVersion, version)
	}
	numSources := ints[4]
	name := nameAt(ints, 7)

	return &SoundLayer{
		layerBase:  layerBase{IsDetail: detail, Name: name},
		NumSources: numSources,
	}, nil
}

func decodeEnvpoints(df *datafile.File) ([]Envpoint, error) {
	raw, err := df.Items.Find(ItemTypeEnvpoint, 0)
	if err != nil {
		return nil, nil
	}
	ints := datafile.UnpackInts(raw)

	points := make([]Envpoint, 0, len(ints)/6)
	for i := 0; i+6 <= len(ints); i += 6 {
		points = append(points, Envpoint{
			Time:      ints[i],
			CurveType: ints[i+1],
			Values:    [4]int32{ints[i+2], ints[i+3], ints[i+4], ints[i+5]},
		})
	}
	return points, nil
}

func decodeEnvelopes(df *datafile.File) ([]Envelope, error) {
	_, count, ok := df.Items.Range(ItemTypeEnvelope)
	if !ok {
		return nil, nil
	}

	envelopes := make([]Envelope, 0, count)
	for i := int32(0); i < count; i++ {
		raw, err := df.Items.Find(ItemTypeEnvelope, i)
		if err != nil {
			return nil, err
		}
		ints := datafile.UnpackInts(raw)
		if len(ints) < 12 {
			return nil, fmt.Errorf("%w: envelope %d", ErrTruncatedFile, i)
		}

		version := ints[0]
		channels := ints[1]
		startPoint := ints[2]
		numPoint := ints[3]
		name := datafile.IntsToString(ints[4:12])

		synced := true
		if version >= 2 {
			v, ok := at(ints, 12)
			synced = ok && v != 0
		}

		envelopes = append(envelopes, Envelope{
			Name:     name,
			Version:  version,
			Channels: channels,
			Synced:   synced,
			Start:    startPoint,
			Count:    numPoint,
		})
	}
	return envelopes, nil
}

func validateImageRefs(m *Map) error {
	check := func(id int32) error {
		if id == -1 {
			return nil
		}
		if id < 0 || int(id) >= len(m.Images) {
			return fmt.Errorf("%w: image id %d", ErrInvalidImageRef, id)
		}
		return nil
	}
	for _, g := range m.Groups {
		for _, l := range g.Layers {
			switch tl := l.(type) {
			case *TileLayer:
				if err := check(tl.ImageID); err != nil {
					return err
				}
			case *QuadLayer:
				if err := check(tl.ImageID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateEnvelopeSlices(m *Map) error {
	for _, e := range m.Envelopes {
		if e.Start < 0 || e.Count < 0 || int(e.Start+e.Count) > len(m.Envpoints) {
			return fmt.Errorf("%w: envelope %q", ErrInvalidEnvpointRef, e.Name)
		}
	}
	return nil
}
