// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors

package uavobject

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// decodeElement reads one element of the field type at data[off:].
func decodeElement(t FieldType, data []byte, off int) interface{} {
	switch t {
	case FieldInt8:
		return int8(data[off])
	case FieldUint8:
		return data[off]
	case FieldEnum:
		return data[off]
	case FieldInt16:
		return int16(binary.LittleEndian.Uint16(data[off:]))
	case FieldUint16:
		return binary.LittleEndian.Uint16(data[off:])
	case FieldInt32:
		return int32(binary.LittleEndian.Uint32(data[off:]))
	case FieldUint32:
		return binary.LittleEndian.Uint32(data[off:])
	case FieldFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	default:
		return nil
	}
}

// Values decodes an encoded instance into a field-name-keyed map. Array
// fields decode to a slice, enum fields to their option name when in range.
func (d *Definition) Values(data []byte) (map[string]interface{}, error) {
	if len(data) != d.NumBytes() {
		return nil, fmt.Errorf("uavobject: %s: data length %d, want %d", d.Name, len(data), d.NumBytes())
	}

	values := make(map[string]interface{}, len(d.Fields))
	off := 0
	for i := range d.Fields {
		f := &d.Fields[i]
		n := f.NumElements()
		elems := make([]interface{}, n)
		for e := 0; e < n; e++ {
			v := decodeElement(f.Type, data, off+e*f.Type.Size())
			if f.Type == FieldEnum {
				idx := v.(byte)
				if int(idx) < len(f.Options) {
					v = f.Options[idx]
				}
			}
			elems[e] = v
		}
		if n == 1 {
			values[f.Name] = elems[0]
		} else {
			values[f.Name] = elems
		}
		off += f.NumBytes()
	}
	return values, nil
}

// FormatValues renders an encoded instance as a single display line, e.g.
// "Roll=-1.25 Pitch=0.50 Yaw=271.00".
func (d *Definition) FormatValues(data []byte) string {
	values, err := d.Values(data)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}

	var b strings.Builder
	for i := range d.Fields {
		f := &d.Fields[i]
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		switch v := values[f.Name].(type) {
		case float32:
			fmt.Fprintf(&b, "%.2f", v)
		case []interface{}:
			parts := make([]string, len(v))
			for j, e := range v {
				parts[j] = fmt.Sprint(e)
			}
			b.WriteString("[" + strings.Join(parts, ",") + "]")
		default:
			fmt.Fprint(&b, v)
		}
		if f.Units != "" {
			b.WriteString(" " + f.Units)
		}
	}
	return b.String()
}

// SetField parses value and writes it into the named field of an encoded
// instance, in place. Array fields take comma-separated element lists;
// enum fields accept either an option name or a numeric index.
func (d *Definition) SetField(data []byte, name, value string) error {
	if len(data) != d.NumBytes() {
		return fmt.Errorf("uavobject: %s: data length %d, want %d", d.Name, len(data), d.NumBytes())
	}
	f, off, ok := d.FieldOffset(name)
	if !ok {
		return fmt.Errorf("uavobject: %s has no field %q", d.Name, name)
	}

	elems := strings.Split(value, ",")
	if len(elems) != f.NumElements() {
		return fmt.Errorf("uavobject: %s.%s: %d elements, want %d", d.Name, name, len(elems), f.NumElements())
	}

	for e, raw := range elems {
		raw = strings.TrimSpace(raw)
		if err := encodeElement(f, data, off+e*f.Type.Size(), raw); err != nil {
			return fmt.Errorf("uavobject: %s.%s: %v", d.Name, name, err)
		}
	}
	return nil
}

// encodeElement writes one parsed element at data[off:].
func encodeElement(f *Field, data []byte, off int, raw string) error {
	switch f.Type {
	case FieldInt8:
		v, err := strconv.ParseInt(raw, 0, 8)
		if err != nil {
			return err
		}
		data[off] = byte(v)
	case FieldUint8:
		v, err := strconv.ParseUint(raw, 0, 8)
		if err != nil {
			return err
		}
		data[off] = byte(v)
	case FieldEnum:
		for idx, opt := range f.Options {
			if strings.EqualFold(opt, raw) {
				data[off] = byte(idx)
				return nil
			}
		}
		v, err := strconv.ParseUint(raw, 0, 8)
		if err != nil {
			return fmt.Errorf("no enum option %q", raw)
		}
		if int(v) >= len(f.Options) {
			return fmt.Errorf("enum index %d out of range", v)
		}
		data[off] = byte(v)
	case FieldInt16:
		v, err := strconv.ParseInt(raw, 0, 16)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(data[off:], uint16(v))
	case FieldUint16:
		v, err := strconv.ParseUint(raw, 0, 16)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(data[off:], uint16(v))
	case FieldInt32:
		v, err := strconv.ParseInt(raw, 0, 32)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(data[off:], uint32(v))
	case FieldUint32:
		v, err := strconv.ParseUint(raw, 0, 32)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(data[off:], uint32(v))
	case FieldFloat32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(float32(v)))
	default:
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	return nil
}
