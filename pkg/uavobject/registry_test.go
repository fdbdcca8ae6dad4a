// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package uavobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(testDefinition()))
	require.NoError(t, reg.Register(&Definition{
		ID:   0x0A0B0C0D,
		Name: "ServoCommand",
		Fields: []Field{
			{Name: "Position", Type: FieldInt16, Count: 4, Units: "us"},
		},
	}))
	return reg
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := testRegistry(t)

	dup := testDefinition()
	assert.ErrorContains(t, reg.Register(dup), "duplicate object ID")

	dup = testDefinition()
	dup.ID = 0x11111111
	assert.ErrorContains(t, reg.Register(dup), "duplicate object name")

	bad := testDefinition()
	bad.ID = 0x22222222
	bad.Name = "Broken"
	bad.Fields = nil
	assert.Error(t, reg.Register(bad))
}

func TestLookups(t *testing.T) {
	reg := testRegistry(t)

	def, ok := reg.Definition(0x01020304)
	require.True(t, ok)
	assert.Equal(t, "NavState", def.Name)

	def, ok = reg.DefinitionByName("ServoCommand")
	require.True(t, ok)
	assert.Equal(t, uint32(0x0A0B0C0D), def.ID)

	_, ok = reg.Definition(0xDEADBEEF)
	assert.False(t, ok)

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "NavState", defs[0].Name)
	assert.Equal(t, "ServoCommand", defs[1].Name)
}

func TestInstanceLifecycle(t *testing.T) {
	reg := testRegistry(t)

	// Single-instance objects exist immediately, zero-valued.
	data, ok := reg.Instance(0x01020304, 0)
	require.True(t, ok)
	assert.Equal(t, make([]byte, 12), data)
	assert.Equal(t, 1, reg.InstanceCount(0x01020304))

	// Multi-instance objects start empty and grow in order.
	assert.Equal(t, 0, reg.InstanceCount(0x0A0B0C0D))
	_, ok = reg.Instance(0x0A0B0C0D, 0)
	assert.False(t, ok)

	block := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, reg.SetInstance(0x0A0B0C0D, 0, block))
	require.NoError(t, reg.SetInstance(0x0A0B0C0D, 1, block))
	assert.Equal(t, 2, reg.InstanceCount(0x0A0B0C0D))

	// No sparse instance IDs.
	assert.ErrorContains(t, reg.SetInstance(0x0A0B0C0D, 5, block), "cannot create instance")

	// Returned data is a copy, not a view.
	data, ok = reg.Instance(0x0A0B0C0D, 0)
	require.True(t, ok)
	data[0] = 0xFF
	again, _ := reg.Instance(0x0A0B0C0D, 0)
	assert.Equal(t, byte(1), again[0])
}

func TestSetInstanceValidation(t *testing.T) {
	reg := testRegistry(t)

	assert.ErrorContains(t, reg.SetInstance(0xDEADBEEF, 0, []byte{0}), "unknown object")
	assert.ErrorContains(t, reg.SetInstance(0x01020304, 0, []byte{0}), "data length")
	assert.ErrorContains(t, reg.SetInstance(0x01020304, 1, make([]byte, 12)), "single-instance")
}

func TestObjectModelSurface(t *testing.T) {
	reg := testRegistry(t)

	assert.True(t, reg.Exists(0x01020304))
	assert.False(t, reg.Exists(0xDEADBEEF))
	assert.Equal(t, 12, reg.SizeOf(0x01020304))
	assert.Equal(t, 0, reg.SizeOf(0xDEADBEEF))
	assert.True(t, reg.IsSingleInstance(0x01020304))
	assert.False(t, reg.IsSingleInstance(0x0A0B0C0D))
	assert.False(t, reg.IsSingleInstance(0xDEADBEEF))
}

func TestPackCopiesStoredData(t *testing.T) {
	reg := testRegistry(t)

	want := make([]byte, 12)
	for i := range want {
		want[i] = byte(i + 1)
	}
	require.NoError(t, reg.SetInstance(0x01020304, 0, want))

	out := make([]byte, 12)
	require.NoError(t, reg.Pack(0x01020304, 0, out))
	assert.Equal(t, want, out)

	assert.ErrorContains(t, reg.Pack(0xDEADBEEF, 0, out), "unknown object")
	assert.ErrorContains(t, reg.Pack(0x0A0B0C0D, 0, out), "no instance")
}

func TestUnpackStoresAndNotifies(t *testing.T) {
	reg := testRegistry(t)

	var gotDef *Definition
	var gotInst uint16
	var gotData []byte
	reg.SetUpdateFunc(func(def *Definition, instID uint16, data []byte) {
		gotDef = def
		gotInst = instID
		gotData = data
	})

	incoming := []byte{10, 20, 30, 40, 50, 60, 70, 80}
	require.NoError(t, reg.Unpack(0x0A0B0C0D, 0, incoming))

	require.NotNil(t, gotDef)
	assert.Equal(t, "ServoCommand", gotDef.Name)
	assert.Equal(t, uint16(0), gotInst)
	assert.Equal(t, incoming, gotData)

	// The callback owns its copy.
	gotData[0] = 0xEE
	stored, _ := reg.Instance(0x0A0B0C0D, 0)
	assert.Equal(t, byte(10), stored[0])

	// Local writes do not notify.
	gotDef = nil
	require.NoError(t, reg.SetInstance(0x0A0B0C0D, 0, incoming))
	assert.Nil(t, gotDef)

	// Failed unpacks do not notify either.
	assert.Error(t, reg.Unpack(0x0A0B0C0D, 7, incoming))
	assert.Nil(t, gotDef)
}
