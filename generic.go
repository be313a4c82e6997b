// generic.go: type-safe fixed-width wrapper
//
// Table's public API works in terms of raw key/value byte buffers. Typed
// marshals comparable K and fixed-size V through encoding/binary so callers
// never touch a byte buffer directly.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import (
	"bytes"
	"encoding/binary"
)

// Typed wraps a raw *Table for a comparable key type K and a fixed-size
// value type V. V (and K used as a key) must be one encoding/binary.Write
// can size: fixed-width integers, floats, bools, arrays, or structs of
// those - not string, slice, map, or plain int/uint (machine-dependent
// size).
type Typed[K comparable, V any] struct {
	table     *Table
	valueSize int
}

// NewTyped derives KeySize/ValueSize from K and V's zero values and
// constructs the underlying Table.
func NewTyped[K comparable, V any](config Config) (*Typed[K, V], error) {
	var k K
	var v V
	keySize := binary.Size(k)
	if keySize < 0 {
		return nil, NewErrInvalidKeySize(keySize)
	}
	valueSize := binary.Size(v)
	if valueSize < 0 {
		return nil, NewErrInvalidValueSize(valueSize)
	}

	config.KeySize = keySize
	config.ValueSize = valueSize
	table, err := New(config)
	if err != nil {
		return nil, err
	}
	return &Typed[K, V]{table: table, valueSize: valueSize}, nil
}

func marshalFixed(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Set inserts or updates key/value, reporting whether key already existed.
func (t *Typed[K, V]) Set(key K, value V) (bool, error) {
	kb, err := marshalFixed(key)
	if err != nil {
		return false, err
	}
	vb, err := marshalFixed(value)
	if err != nil {
		return false, err
	}
	return t.table.Set(kb, 0, vb, 0)
}

// Get returns key's value and whether it was found.
func (t *Typed[K, V]) Get(key K) (V, bool, error) {
	var zero V
	kb, err := marshalFixed(key)
	if err != nil {
		return zero, false, err
	}
	out := make([]byte, t.valueSize)
	hit, err := t.table.Get(kb, 0, out, 0)
	if err != nil || !hit {
		return zero, hit, err
	}
	var result V
	if err := binary.Read(bytes.NewReader(out), binary.LittleEndian, &result); err != nil {
		return zero, false, err
	}
	return result, true, nil
}

// Exist reports whether key is present.
func (t *Typed[K, V]) Exist(key K) (bool, error) {
	kb, err := marshalFixed(key)
	if err != nil {
		return false, err
	}
	return t.table.Exist(kb, 0)
}

// Unset removes key if present.
func (t *Typed[K, V]) Unset(key K) (bool, error) {
	kb, err := marshalFixed(key)
	if err != nil {
		return false, err
	}
	return t.table.Unset(kb, 0)
}

// Cache inserts or updates key/value under CLOCK eviction (cache mode).
func (t *Typed[K, V]) Cache(key K, value V) (int, error) {
	kb, err := marshalFixed(key)
	if err != nil {
		return -1, err
	}
	vb, err := marshalFixed(value)
	if err != nil {
		return -1, err
	}
	return t.table.Cache(kb, 0, vb, 0)
}

// Stats returns the underlying Table's observable attributes.
func (t *Typed[K, V]) Stats() Stats { return t.table.Stats() }

// Mode reports which mode the underlying Table has locked into.
func (t *Typed[K, V]) Mode() Mode { return t.table.Mode() }
