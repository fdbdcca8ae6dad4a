// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

// Package uavobject provides a definition-driven object model for the
// SkyTalk protocol. Objects are described by definitions (ID, cardinality,
// typed field list) loaded from YAML or registered in code; instance data
// is stored as fixed-size byte blocks matching the wire encoding, so the
// registry can serve as the protocol core's ObjectModel without a code
// generation step.
package uavobject

import (
	"fmt"

	"github.com/aviary-gcs/aviary/pkg/skytalk"
)

// FieldType names the wire type of one object field.
type FieldType string

// Supported field types. All multi-byte types are little-endian.
const (
	FieldInt8    FieldType = "int8"
	FieldInt16   FieldType = "int16"
	FieldInt32   FieldType = "int32"
	FieldUint8   FieldType = "uint8"
	FieldUint16  FieldType = "uint16"
	FieldUint32  FieldType = "uint32"
	FieldFloat32 FieldType = "float32"
	FieldEnum    FieldType = "enum"
)

// Size returns the encoded size of one element of the type, or 0 for an
// unknown type.
func (t FieldType) Size() int {
	switch t {
	case FieldInt8, FieldUint8, FieldEnum:
		return 1
	case FieldInt16, FieldUint16:
		return 2
	case FieldInt32, FieldUint32, FieldFloat32:
		return 4
	default:
		return 0
	}
}

// Field describes one field of an object.
type Field struct {
	Name    string    `yaml:"name"`
	Type    FieldType `yaml:"type"`
	Count   int       `yaml:"count,omitempty"`   // array elements; 0 means 1
	Units   string    `yaml:"units,omitempty"`   // display only
	Options []string  `yaml:"options,omitempty"` // enum value names
}

// NumElements returns the number of array elements in the field.
func (f *Field) NumElements() int {
	if f.Count < 1 {
		return 1
	}
	return f.Count
}

// NumBytes returns the encoded size of the field.
func (f *Field) NumBytes() int {
	return f.Type.Size() * f.NumElements()
}

// Definition describes one object type: its identity, cardinality, and
// field layout. Fields are encoded in declaration order with no padding.
type Definition struct {
	ID             uint32  `yaml:"id"`
	Name           string  `yaml:"name"`
	SingleInstance bool    `yaml:"single_instance"`
	Fields         []Field `yaml:"fields"`
}

// NumBytes returns the fixed encoded size of one instance.
func (d *Definition) NumBytes() int {
	n := 0
	for i := range d.Fields {
		n += d.Fields[i].NumBytes()
	}
	return n
}

// FieldOffset returns the byte offset of the named field within an encoded
// instance, plus the field itself.
func (d *Definition) FieldOffset(name string) (*Field, int, bool) {
	off := 0
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], off, true
		}
		off += d.Fields[i].NumBytes()
	}
	return nil, 0, false
}

// Validate checks a definition for structural problems.
func (d *Definition) Validate() error {
	if d.ID == 0 {
		return fmt.Errorf("object %q: ID must be nonzero", d.Name)
	}
	if d.Name == "" {
		return fmt.Errorf("object 0x%08X: name must not be empty", d.ID)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("object %q: no fields", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("object %q: field %d has no name", d.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("object %q: duplicate field %q", d.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Type.Size() == 0 {
			return fmt.Errorf("object %q: field %q has unknown type %q", d.Name, f.Name, f.Type)
		}
		if f.Type == FieldEnum && len(f.Options) == 0 {
			return fmt.Errorf("object %q: enum field %q has no options", d.Name, f.Name)
		}
	}
	if d.NumBytes() >= skytalk.MaxPayloadLength {
		return fmt.Errorf("object %q: encoded size %d exceeds maximum payload %d",
			d.Name, d.NumBytes(), skytalk.MaxPayloadLength-1)
	}
	return nil
}
