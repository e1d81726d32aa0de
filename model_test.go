// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_GameGroupAndGameLayer(t *testing.T) {
	m := minimalMap()

	gg := m.GameGroup()
	require.NotNil(t, gg)
	assert.Equal(t, "Game", gg.Name)

	gl := m.GameLayer()
	require.NotNil(t, gl)
	assert.Equal(t, GameFlagGame, gl.GameFlag)
}

func TestMap_GameGroupAndGameLayer_Absent(t *testing.T) {
	m := &Map{}
	assert.Nil(t, m.GameGroup())
	assert.Nil(t, m.GameLayer())
	assert.Nil(t, m.AuxLayer(GameFlagTele))
}

func TestMap_AuxLayer(t *testing.T) {
	m := withTeleLayer(minimalMap())

	tele := m.AuxLayer(GameFlagTele)
	require.NotNil(t, tele)
	assert.Equal(t, "Tele", tele.LayerName())

	assert.Nil(t, m.AuxLayer(GameFlagSwitch))
}

func TestMap_EnvpointsOf(t *testing.T) {
	m := &Map{
		Envpoints: []Envpoint{
			{Time: 0}, {Time: 1}, {Time: 2}, {Time: 3},
		},
	}

	e := Envelope{Start: 1, Count: 2}
	pts := m.EnvpointsOf(e)
	require.Len(t, pts, 2)
	assert.Equal(t, int32(1), pts[0].Time)
	assert.Equal(t, int32(2), pts[1].Time)

	assert.Nil(t, m.EnvpointsOf(Envelope{Start: -1, Count: 1}))
	assert.Nil(t, m.EnvpointsOf(Envelope{Start: 3, Count: 5}))
}

func TestLayerBase_DetailAndName(t *testing.T) {
	l := layerBase{IsDetail: true, Name: "Background"}
	assert.True(t, l.Detail())
	assert.Equal(t, "Background", l.LayerName())
}
