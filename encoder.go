// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kelindar/ddmap/internal/datafile"
)

// encItem is one item queued for writing, before the final (type, id)
// sort and offset computation.
type encItem struct {
	typ  int32
	id   int32
	ints []int32
}

// builder accumulates items and blobs for one Save call.
type builder struct {
	items []encItem
	blobs datafile.BlobBuilder
	next  map[int32]int32 // next free id per item type
}

func newBuilder() *builder {
	return &builder{next: make(map[int32]int32)}
}

func (b *builder) addItem(typ int32, ints []int32) int32 {
	id := b.next[typ]
	b.next[typ] = id + 1
	b.items = append(b.items, encItem{typ: typ, id: id, ints: ints})
	return id
}

// addBlob compresses raw and returns its index, or -1 if raw is nil.
func (b *builder) addBlob(raw []byte) (int32, error) {
	if raw == nil {
		return -1, nil
	}
	return b.blobs.Add(raw)
}

// Save validates m and writes it to path. path must end in ".map"; a
// path without that extension is rejected, matching the reference
// tool's refusal to silently rewrite an unrelated file.
func Save(path string, m *Map) error {
	if filepath.Ext(path) != ".map" {
		return fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return save(path, m)
}

// SaveAuto is Save's lenient counterpart: a path missing the ".map"
// extension has it appended instead of being rejected.
func SaveAuto(path string, m *Map) error {
	if filepath.Ext(path) != ".map" {
		path += ".map"
	}
	return save(path, m)
}

func save(path string, m *Map) error {
	buf, err := EncodeBytes(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// EncodeBytes validates m and returns the encoded file contents.
func EncodeBytes(m *Map) ([]byte, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}

	b := newBuilder()

	// Version item (0, 0) = [1], always first.
	b.addItem(ItemTypeVersion, []int32{1})

	if err := encodeInfo(b, m.Info); err != nil {
		return nil, err
	}
	if err := encodeImages(b, m.Images); err != nil {
		return nil, err
	}
	if err := encodeGroups(b, m.Groups); err != nil {
		return nil, err
	}
	encodeEnvpoints(b, m.Envpoints)
	encodeEnvelopes(b, m.Envelopes)

	return assemble(b)
}

func encodeInfo(b *builder, info *Info) error {
	if info == nil {
		return nil
	}

	idx := func(s *string) (int32, error) {
		if s == nil {
			return -1, nil
		}
		return b.addBlob(datafile.EncodeText(*s))
	}

	author, err := idx(info.Author)
	if err != nil {
		return err
	}
	mapVersion, err := idx(info.MapVersion)
	if err != nil {
		return err
	}
	credits, err := idx(info.Credits)
	if err != nil {
		return err
	}
	license, err := idx(info.License)
	if err != nil {
		return err
	}
	settings, err := idx(info.Settings)
	if err != nil {
		return err
	}

	b.addItem(ItemTypeInfo, []int32{1, author, mapVersion, credits, license, settings})
	return nil
}

func encodeImages(b *builder, images []Image) error {
	for _, img := range images {
		nameIdx, err := b.addBlob(datafile.EncodeText(img.Name))
		if err != nil {
			return err
		}

		dataIdx := int32(-1)
		if !img.External {
			dataIdx, err = b.addBlob(img.Data)
			if err != nil {
				return err
			}
		}

		external := int32(0)
		if img.External {
			external = 1
		}

		b.addItem(ItemTypeImage, []int32{1, int32(img.Width), int32(img.Height), external, nameIdx, dataIdx})
	}
	return nil
}

func encodeGroups(b *builder, groups []Group) error {
	layerCount := int32(0)
	for _, g := range groups {
		startLayer := layerCount
		for _, l := range g.Layers {
			if err := encodeLayer(b, l); err != nil {
				return err
			}
			layerCount++
		}

		clipping := int32(0)
		if g.UseClipping {
			clipping = 1
		}

		name := "Game"
		if !g.IsGameGroup {
			name = g.Name
		}

		ints := []int32{3, g.OffsetX, g.OffsetY, g.ParallaxX, g.ParallaxY, startLayer, int32(len(g.Layers)), clipping, g.ClipX, g.ClipY, g.ClipW, g.ClipH}
		ints = append(ints, datafile.StringToInts(name, 3)...)
		b.addItem(ItemTypeGroup, ints)
	}
	return nil
}

func encodeLayer(b *builder, l Layer) error {
	switch v := l.(type) {
	case *TileLayer:
		return encodeTileLayer(b, v)
	case *QuadLayer:
		return encodeQuadLayer(b, v)
	case *SoundLayer:
		encodeSoundLayer(b, v)
		return nil
	default:
		return fmt.Errorf("mapfile: unknown layer type %T", l)
	}
}

func detailFlag(detail bool) int32 {
	if detail {
		return 1
	}
	return 0
}

// encodeTileLayer writes the layer prefix, the 12 base fields, the
// 3-i32 name, and then exactly as many trailing aux-blob index slots as
// this layer's game flag requires, writing -1 into any slot that falls
// before the one actually used (the reference writer reserves slots
// 18/19 for tele/speedup whenever either exists on the map; here each
// tile layer only reserves what it itself needs, since the decoder
// bounds-checks every offset read per item).
func encodeTileLayer(b *builder, l *TileLayer) error {
	wh := int(l.Width) * int(l.Height)

	// The five aux game-flag kinds keep their real per-cell data in a
	// separate aux blob; data_idx still needs to point at a valid
	// w*h*4 blob for legacy readers, so it's zero-filled instead of
	// carrying l.Tiles.
	var dataIdx int32
	var err error
	if isAuxGameFlag(l.GameFlag) {
		dataIdx, err = b.addBlob(make([]byte, wh*4))
	} else {
		mainTiles := encodeTiles(l.Tiles)
		if len(mainTiles) != wh*4 {
			return fmt.Errorf("%w: tile layer %q", ErrInvalidLayerSize, l.Name)
		}
		dataIdx, err = b.addBlob(mainTiles)
	}
	if err != nil {
		return err
	}

	ints := []int32{3, LayerTypeTiles, detailFlag(l.Detail())}
	ints = append(ints,
		3, int32(l.Width), int32(l.Height), int32(l.GameFlag),
		int32(l.Color[0]), int32(l.Color[1]), int32(l.Color[2]), int32(l.Color[3]),
		l.ColorEnv, l.ColorEnvOffset, l.ImageID, dataIdx,
	)
	ints = append(ints, datafile.StringToInts(l.LayerName(), 3)...)

	switch l.GameFlag {
	case GameFlagTele:
		idx, err := b.addBlob(encodeTeleTiles(l.TeleTiles))
		if err != nil {
			return err
		}
		ints = append(ints, idx)
	case GameFlagSpeedup:
		idx, err := b.addBlob(encodeSpeedupTiles(l.SpeedupTiles))
		if err != nil {
			return err
		}
		ints = append(ints, -1, idx)
	case GameFlagFront:
		frontTiles := encodeTiles(l.Tiles)
		if len(frontTiles) != wh*4 {
			return fmt.Errorf("%w: front layer %q", ErrInvalidLayerSize, l.Name)
		}
		idx, err := b.addBlob(frontTiles)
		if err != nil {
			return err
		}
		ints = append(ints, -1, -1, idx)
	case GameFlagSwitch:
		idx, err := b.addBlob(encodeSwitchTiles(l.SwitchTiles))
		if err != nil {
			return err
		}
		ints = append(ints, -1, -1, -1, idx)
	case GameFlagTune:
		idx, err := b.addBlob(encodeTuneTiles(l.TuneTiles))
		if err != nil {
			return err
		}
		ints = append(ints, -1, -1, -1, -1, idx)
	}

	b.addItem(ItemTypeLayer, ints)
	return nil
}

// isAuxGameFlag reports whether flag is one of the five kinds that carry
// their real per-cell data in a separate aux blob rather than data_idx.
func isAuxGameFlag(flag int) bool {
	switch flag {
	case GameFlagTele, GameFlagSpeedup, GameFlagFront, GameFlagSwitch, GameFlagTune:
		return true
	default:
		return false
	}
}

func encodeTiles(tiles []Tile) []byte {
	out := make([]byte, len(tiles)*4)
	for i, t := range tiles {
		out[i*4] = t.Index
		out[i*4+1] = t.Flags
		out[i*4+2] = t.Skip
		out[i*4+3] = t.Coords
	}
	return out
}

func encodeTeleTiles(tiles []TeleTile) []byte {
	out := make([]byte, len(tiles)*2)
	for i, t := range tiles {
		out[i*2] = t.Number
		out[i*2+1] = t.Type
	}
	return out
}

func encodeSpeedupTiles(tiles []SpeedupTile) []byte {
	out := make([]byte, len(tiles)*6)
	for i, t := range tiles {
		out[i*6] = t.Force
		out[i*6+1] = t.MaxSpeed
		out[i*6+2] = t.Type
		out[i*6+3] = byte(uint16(t.Angle))
		out[i*6+4] = byte(uint16(t.Angle) >> 8)
		out[i*6+5] = 0
	}
	return out
}

func encodeSwitchTiles(tiles []SwitchTile) []byte {
	out := make([]byte, len(tiles)*4)
	for i, t := range tiles {
		out[i*4] = t.Number
		out[i*4+1] = t.Type
		out[i*4+2] = t.Flags
		out[i*4+3] = t.Delay
	}
	return out
}

func encodeTuneTiles(tiles []TuneTile) []byte {
	out := make([]byte, len(tiles)*2)
	for i, t := range tiles {
		out[i*2] = t.Number
		out[i*2+1] = t.Type
	}
	return out
}

func encodeQuadLayer(b *builder, l *QuadLayer) error {
	raw := make([]byte, len(l.Quads)*152)
	for i, q := range l.Quads {
		copy(raw[i*152:i*152+152], q.Data[:])
	}
	dataIdx, err := b.addBlob(raw)
	if err != nil {
		return err
	}

	ints := []int32{3, LayerTypeQuads, detailFlag(l.Detail())}
	ints = append(ints, 2, int32(len(l.Quads)), dataIdx, l.ImageID)
	ints = append(ints, datafile.StringToInts(l.LayerName(), 3)...)
	b.addItem(ItemTypeLayer, ints)
	return nil
}

func encodeSoundLayer(b *builder, l *SoundLayer) {
	ints := []int32{3, LayerTypeSounds, detailFlag(l.Detail())}
	ints = append(ints, 2, l.NumSources, -1, -1)
	ints = append(ints, datafile.StringToInts(l.LayerName(), 3)...)
	b.addItem(ItemTypeLayer, ints)
}

func encodeEnvpoints(b *builder, points []Envpoint) {
	if len(points) == 0 {
		return
	}
	ints := make([]int32, 0, len(points)*6)
	for _, p := range points {
		ints = append(ints, p.Time, p.CurveType, p.Values[0], p.Values[1], p.Values[2], p.Values[3])
	}
	b.addItem(ItemTypeEnvpoint, ints)
}

func encodeEnvelopes(b *builder, envelopes []Envelope) {
	for _, e := range envelopes {
		synced := int32(0)
		if e.Synced {
			synced = 1
		}
		ints := []int32{e.Version, e.Channels, e.Start, e.Count}
		ints = append(ints, datafile.StringToInts(e.Name, 8)...)
		ints = append(ints, synced)
		b.addItem(ItemTypeEnvelope, ints)
	}
}

// assemble sorts items by (type, id), lays out the offset tables, and
// concatenates everything into the final file bytes.
func assemble(b *builder) ([]byte, error) {
	sort.Slice(b.items, func(i, j int) bool {
		if b.items[i].typ != b.items[j].typ {
			return b.items[i].typ < b.items[j].typ
		}
		return b.items[i].id < b.items[j].id
	})

	type typeRange struct{ typ, start, count int32 }
	var ranges []typeRange
	for i, it := range b.items {
		if i == 0 || b.items[i-1].typ != it.typ {
			ranges = append(ranges, typeRange{typ: it.typ, start: int32(i), count: 0})
		}
		ranges[len(ranges)-1].count++
	}

	itemBytes := make([][]byte, len(b.items))
	itemSize := int32(0)
	for i, it := range b.items {
		payload := datafile.PackInts(it.ints)
		head := make([]byte, 8)
		typeAndID := uint32(it.typ)<<16 | uint32(it.id)
		head[0] = byte(typeAndID)
		head[1] = byte(typeAndID >> 8)
		head[2] = byte(typeAndID >> 16)
		head[3] = byte(typeAndID >> 24)
		size := uint32(len(payload))
		head[4] = byte(size)
		head[5] = byte(size >> 8)
		head[6] = byte(size >> 16)
		head[7] = byte(size >> 24)
		itemBytes[i] = append(head, payload...)
		itemSize += int32(len(itemBytes[i]))
	}

	dataSize := b.blobs.Size()
	numItemTypes := int32(len(ranges))
	numItems := int32(len(b.items))
	numRawData := int32(b.blobs.Count())

	itemTypesSize := numItemTypes * 12
	offsetSize := (numItems + 2*numRawData) * 4
	fileSize := 36 + itemTypesSize + offsetSize + itemSize + dataSize - 16
	swaplen := fileSize - dataSize

	h := &datafile.Header{
		Version:      4,
		FileSize:     fileSize,
		Swaplen:      swaplen,
		NumItemTypes: numItemTypes,
		NumItems:     numItems,
		NumRawData:   numRawData,
		ItemSize:     itemSize,
		DataSize:     dataSize,
	}

	out := make([]byte, 0, 36+itemTypesSize+offsetSize+itemSize+dataSize)
	out = append(out, []byte("DATA")...)
	out = append(out, h.Write()...)

	for _, r := range ranges {
		buf := datafile.PackInts([]int32{r.typ, r.start, r.count})
		out = append(out, buf...)
	}

	itemOffsets := make([]int32, len(b.items))
	pos := int32(0)
	for i, ib := range itemBytes {
		itemOffsets[i] = pos
		pos += int32(len(ib))
	}
	out = append(out, datafile.PackInts(itemOffsets)...)

	out = append(out, datafile.PackInts(b.blobs.Offsets())...)
	out = append(out, datafile.PackInts(b.blobs.UncompressedSizes())...)

	for _, ib := range itemBytes {
		out = append(out, ib...)
	}
	out = append(out, b.blobs.Bytes()...)

	return out, nil
}
