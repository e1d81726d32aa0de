// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidGameTile(t *testing.T) {
	valid := []int{
		tileAir, tileSolid, tileNoLaser, tileThrough, tileFreeze,
		tileUnfreeze, tileDUnfreeze, tileWallJump, tileSoloEnd,
		tileRefillJumps, tileStopA, tileCP, tileThroughDir,
		tileOldLaser, tileUnlockTeam, tileNPCEnd, tileNPHEnd,
		tileNPCStart, tileNPHStart, tileEntitiesOff1, tileEntitiesOff2,
	}
	for _, i := range valid {
		assert.True(t, IsValidGameTile(i), "tile %d should be a valid game tile", i)
	}

	invalid := []int{5, 8, 10, 15, 63, 68, 92, 103, 189}
	for _, i := range invalid {
		assert.False(t, IsValidGameTile(i), "tile %d should not be a valid game tile", i)
	}
}

func TestIsValidFrontTile(t *testing.T) {
	assert.True(t, IsValidFrontTile(tileAir))
	assert.True(t, IsValidFrontTile(tileDeath))
	assert.True(t, IsValidFrontTile(tileThrough))
	assert.False(t, IsValidFrontTile(tileSolid), "front layer narrows the solid range to exclude TILE_SOLID")
	assert.False(t, IsValidFrontTile(tileEntitiesOff1), "front layer drops the entities-off sentinels")
}

func TestIsValidEntity(t *testing.T) {
	assert.True(t, IsValidEntity(entityOffset+entitySpawn))
	assert.True(t, IsValidEntity(entityOffset+entityDoor))
	assert.False(t, IsValidEntity(entityOffset))
	assert.False(t, IsValidEntity(entityOffset+entityDoor+1))
}

// TestSoloEndSwitchTimedOpenOverlap documents the intentional constant
// collision between TILE_SOLO_END and TILE_SWITCHTIMEDOPEN: both classify
// as a valid game tile through the same range check.
func TestSoloEndSwitchTimedOpenOverlap(t *testing.T) {
	assert.Equal(t, 22, tileSoloEnd)
	assert.True(t, IsValidGameTile(tileSoloEnd))
}
