// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package uavobject

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionFile is the YAML schema for an object definition set.
type definitionFile struct {
	Objects []*Definition `yaml:"objects"`
}

// LoadDefinitions parses a YAML definition set from r and validates every
// definition in it.
func LoadDefinitions(r io.Reader) ([]*Definition, error) {
	var file definitionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("uavobject: parse definitions: %w", err)
	}
	if len(file.Objects) == 0 {
		return nil, fmt.Errorf("uavobject: definition set is empty")
	}
	for _, def := range file.Objects {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Objects, nil
}

// LoadDefinitionsFile reads a YAML definition set from disk.
func LoadDefinitionsFile(path string) ([]*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("uavobject: %w", err)
	}
	defer f.Close()
	return LoadDefinitions(f)
}

// DefaultDefinitions returns the built-in object set used when no
// definition file is given. It covers the objects a stock flight stack
// reports, so the CLI is useful out of the box.
func DefaultDefinitions() []*Definition {
	return []*Definition{
		{
			ID:             0x2E7B1A04,
			Name:           "AttitudeState",
			SingleInstance: true,
			Fields: []Field{
				{Name: "Roll", Type: FieldFloat32, Units: "deg"},
				{Name: "Pitch", Type: FieldFloat32, Units: "deg"},
				{Name: "Yaw", Type: FieldFloat32, Units: "deg"},
			},
		},
		{
			ID:             0x41F5C29A,
			Name:           "GPSPosition",
			SingleInstance: true,
			Fields: []Field{
				{Name: "Latitude", Type: FieldInt32, Units: "1e-7 deg"},
				{Name: "Longitude", Type: FieldInt32, Units: "1e-7 deg"},
				{Name: "Altitude", Type: FieldFloat32, Units: "m"},
				{Name: "Satellites", Type: FieldUint8},
				{Name: "Status", Type: FieldEnum, Options: []string{"NoFix", "Fix2D", "Fix3D"}},
			},
		},
		{
			ID:             0x5AD20318,
			Name:           "FlightBatteryState",
			SingleInstance: true,
			Fields: []Field{
				{Name: "Voltage", Type: FieldFloat32, Units: "V"},
				{Name: "Current", Type: FieldFloat32, Units: "A"},
				{Name: "ConsumedEnergy", Type: FieldUint32, Units: "mAh"},
			},
		},
		{
			ID:             0x6C1923B6,
			Name:           "FlightStatus",
			SingleInstance: true,
			Fields: []Field{
				{Name: "Armed", Type: FieldEnum, Options: []string{"Disarmed", "Arming", "Armed"}},
				{Name: "FlightMode", Type: FieldEnum, Options: []string{"Manual", "Stabilized", "AltitudeHold", "PositionHold", "ReturnToBase"}},
			},
		},
		{
			// One instance per output channel bank.
			ID:   0x732D9E40,
			Name: "ActuatorCommand",
			Fields: []Field{
				{Name: "Channel", Type: FieldInt16, Count: 8, Units: "us"},
				{Name: "UpdateTime", Type: FieldUint8, Units: "ms"},
			},
		},
		{
			ID:             0x89E2B0CE,
			Name:           "SystemStats",
			SingleInstance: true,
			Fields: []Field{
				{Name: "FlightTime", Type: FieldUint32, Units: "ms"},
				{Name: "HeapRemaining", Type: FieldUint16, Units: "B"},
				{Name: "CPULoad", Type: FieldUint8, Units: "%"},
			},
		},
		{
			ID:             0x9D43A17C,
			Name:           "TelemetrySettings",
			SingleInstance: true,
			Fields: []Field{
				{Name: "Speed", Type: FieldEnum, Options: []string{"2400", "9600", "38400", "57600", "115200"}},
				{Name: "UpdatePeriod", Type: FieldUint16, Units: "ms"},
			},
		},
	}
}
