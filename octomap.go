// octomap.go: package-level constants
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

const (
	// Version of the octomap library.
	Version = "v0.1.0-dev"

	// DefaultElementsMin is the default lower growth bound applied when a
	// Config does not set ElementsMin.
	DefaultElementsMin = 1024

	// slotsPerBucket is the fixed fan-out of every bucket: eight slots,
	// addressed by a 3-bit index and a one-byte-per-slot presence bitmap.
	slotsPerBucket = 8

	// bucketMetadataSize is the fixed 20-byte header: 8 filter bytes, 1
	// second-position counter, 1 presence bitmap, 8 tag bytes, 1 CLOCK
	// used-bitmap, 1 CLOCK hand.
	bucketMetadataSize = 20

	// cacheLine is the alignment granularity bucketStride is rounded up to.
	cacheLine = 64

	// shardCountMax, bucketCountMax and bufferMax are the hard resource
	// limits a shard can grow to before resize gives up.
	shardCountMax  = 8192
	bucketCountMax = 65536
	bufferMax      = (1 << 31) - 1
)
