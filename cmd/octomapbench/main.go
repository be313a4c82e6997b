// Command octomapbench drives an ad-hoc workload against an octomap Table
// and reports throughput and final table statistics. It is meant for quick
// capacity planning ("how many shards/buckets do I need for N elements at
// this key/value size") without writing a throwaway Go program.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"time"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/octomap"
)

func main() {
	fs := flashflags.New("octomapbench")
	keySize := fs.Int("key-size", 8, "key size in bytes (multiple of 4, 4-64)")
	valueSize := fs.Int("value-size", 8, "value size in bytes (0-1048576)")
	elements := fs.Int("elements", 100_000, "number of elements to drive through the table")
	mode := fs.String("mode", "dict", "table mode: dict or cache")
	readRatio := fs.Float64("read-ratio", 0.8, "fraction of operations that are reads")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	config := octomap.Config{
		KeySize:     *keySize,
		ValueSize:   *valueSize,
		ElementsMin: *elements,
	}
	if *mode == "cache" {
		config.ElementsMax = int64(*elements)
	}

	tbl, err := octomap.New(config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "octomapbench:", err)
		os.Exit(1)
	}

	key := make([]byte, *keySize)
	value := make([]byte, *valueSize)
	scratch := make([]byte, *valueSize)

	start := time.Now()
	var ops int
	for i := 0; i < *elements; i++ {
		binary.LittleEndian.PutUint64(key, uint64(i))
		if *mode == "cache" {
			if _, err := tbl.Cache(key, 0, value, 0); err != nil {
				fmt.Fprintln(os.Stderr, "octomapbench: cache:", err)
				os.Exit(1)
			}
		} else {
			if _, err := tbl.Set(key, 0, value, 0); err != nil {
				fmt.Fprintln(os.Stderr, "octomapbench: set:", err)
				os.Exit(1)
			}
		}
		ops++

		if rand.Float64() < *readRatio {
			binary.LittleEndian.PutUint64(key, uint64(rand.Intn(i+1)))
			if _, err := tbl.Get(key, 0, scratch, 0); err != nil {
				fmt.Fprintln(os.Stderr, "octomapbench: get:", err)
				os.Exit(1)
			}
			ops++
		}
	}
	elapsed := time.Since(start)

	stats := tbl.Stats()
	fmt.Printf("mode=%s elements=%d ops=%d elapsed=%s ops/sec=%.0f\n",
		*mode, *elements, ops, elapsed, float64(ops)/elapsed.Seconds())
	fmt.Printf("length=%d capacity=%d size=%d load=%.3f shards=%d resizes=%d evictions=%d\n",
		stats.Length, stats.Capacity, stats.Size, stats.Load, stats.ShardCount, stats.Resizes, stats.Evictions)
}
