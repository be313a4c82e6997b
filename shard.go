// shard.go: the per-shard bucket protocol
//
// A shard owns one contiguous byte buffer of bucketCount 64-byte-aligned
// buckets. Every hot operation touches one or two buckets; no other entity
// ever shares or retains a reference into this buffer.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import "bytes"

// Byte offsets within a bucket.
const (
	offFilters       = 0  // 8 bytes: F0..F7
	offSecondCounter = 8  // 1 byte: saturating second-position counter
	offPresence      = 9  // 1 byte: presence bitmap
	offTags          = 10 // 8 bytes: T0..T7
	offClockUsed     = 18 // 1 byte: CLOCK recently-used bitmap
	offClockHand     = 19 // 1 byte: CLOCK hand, value in [0,7]
	offSlots         = 20 // slot region starts here
)

// shard owns one contiguous buffer of bucketCount buckets and implements
// get/exist/set/unset/cache/resize against it.
type shard struct {
	buf         []byte
	bucketCount int
	mask        uint32
	stride      int
	keySize     int
	valueSize   int
	elemSize    int
	copyKey     copyFunc
	copyValue   copyFunc
	hasher      *tabulationHasher
}

func newShard(keySize, valueSize, bucketCount int, hasher *tabulationHasher) *shard {
	stride := bucketStride(keySize, valueSize)
	return &shard{
		buf:         make([]byte, stride*bucketCount),
		bucketCount: bucketCount,
		mask:        uint32(bucketCount - 1),
		stride:      stride,
		keySize:     keySize,
		valueSize:   valueSize,
		elemSize:    keySize + valueSize,
		copyKey:     dispatchCopy(keySize),
		copyValue:   dispatchCopy(valueSize),
		hasher:      hasher,
	}
}

func (s *shard) bucketOff(idx int) int { return idx * s.stride }

func tagFilterIndex(tag byte) (fi int, fb byte) {
	return int((tag >> 4) & 7), 1 << (tag & 7)
}

// scanBucket returns the slot index holding key within bucket bOff, or -1.
func (s *shard) scanBucket(bOff int, tag byte, key []byte) int {
	presence := s.buf[bOff+offPresence]
	for slot := 0; slot < slotsPerBucket; slot++ {
		if presence&(1<<uint(slot)) == 0 {
			continue
		}
		if s.buf[bOff+offTags+slot] != tag {
			continue
		}
		so := bOff + offSlots + slot*s.elemSize
		if bytes.Equal(s.buf[so:so+s.keySize], key) {
			return slot
		}
	}
	return -1
}

func (s *shard) slotOff(bOff, slot int) int { return bOff + offSlots + slot*s.elemSize }

func (s *shard) setClockUsed(bOff, slot int) {
	s.buf[bOff+offClockUsed] |= 1 << uint(slot)
}

func (s *shard) copyValueOut(bOff, slot int, out []byte) {
	if s.valueSize == 0 {
		return
	}
	so := s.slotOff(bOff, slot)
	s.copyValue(out[:s.valueSize], s.buf[so+s.keySize:so+s.elemSize])
}

func (s *shard) writeValueInPlace(bOff, slot int, value []byte) {
	if s.valueSize == 0 {
		return
	}
	so := s.slotOff(bOff, slot)
	s.copyValue(s.buf[so+s.keySize:so+s.elemSize], value)
}

// writeElement installs key/value/tag into an empty slot and marks it
// present. It does not touch the bucket's filter or second-position
// counter - callers apply those per the position (first vs second) the
// new element is taking.
func (s *shard) writeElement(bOff, slot int, key, value []byte, tag byte) {
	so := s.slotOff(bOff, slot)
	s.copyKey(s.buf[so:so+s.keySize], key)
	if s.valueSize > 0 {
		s.copyValue(s.buf[so+s.keySize:so+s.elemSize], value)
	}
	s.buf[bOff+offTags+slot] = tag
	s.buf[bOff+offPresence] |= 1 << uint(slot)
}

// clearElement empties a slot: presence bit, tag byte, key and value bytes,
// and the advisory CLOCK-used bit.
func (s *shard) clearElement(bOff, slot int) {
	so := s.slotOff(bOff, slot)
	clear(s.buf[so : so+s.elemSize])
	s.buf[bOff+offTags+slot] = 0
	s.buf[bOff+offPresence] &^= 1 << uint(slot)
	s.buf[bOff+offClockUsed] &^= 1 << uint(slot)
}

func incSecondPositionCounter(buf []byte, bOff int) {
	c := buf[bOff+offSecondCounter]
	if c < 255 {
		buf[bOff+offSecondCounter] = c + 1
	}
}

// decSecondPositionCounter decrements the counter unless it has saturated
// at 255, in which case it is never decremented again.
func decSecondPositionCounter(buf []byte, bOff int) {
	c := buf[bOff+offSecondCounter]
	if c == 255 || c == 0 {
		return
	}
	buf[bOff+offSecondCounter] = c - 1
}

// exist reports presence without mutation. h1,h2 are
// computed once by the coordinator and passed down.
func (s *shard) exist(h1, h2 uint32, key []byte) bool {
	tag := byte((h1 >> 16) & 0xFF)
	fi, fb := tagFilterIndex(tag)
	off1 := s.bucketOff(int(h1 & s.mask))
	if s.buf[off1+fi]&fb == 0 {
		return false
	}
	if s.scanBucket(off1, tag, key) >= 0 {
		return true
	}
	off2 := s.bucketOff(int(h2 & s.mask))
	return s.scanBucket(off2, tag, key) >= 0
}

// get copies the value on a hit and marks the slot recently-used for both
// dict and cache mode.
func (s *shard) get(h1, h2 uint32, key, outValue []byte) bool {
	tag := byte((h1 >> 16) & 0xFF)
	fi, fb := tagFilterIndex(tag)
	off1 := s.bucketOff(int(h1 & s.mask))
	if s.buf[off1+fi]&fb == 0 {
		return false
	}
	if slot := s.scanBucket(off1, tag, key); slot >= 0 {
		s.copyValueOut(off1, slot, outValue)
		s.setClockUsed(off1, slot)
		return true
	}
	off2 := s.bucketOff(int(h2 & s.mask))
	if slot := s.scanBucket(off2, tag, key); slot >= 0 {
		s.copyValueOut(off2, slot, outValue)
		s.setClockUsed(off2, slot)
		return true
	}
	return false
}

// set returns 1=updated, 0=inserted, -1=would-displace-too-far (the
// coordinator treats -1 as a growth signal).
func (s *shard) set(h1, h2 uint32, key, value []byte) int {
	tag := byte((h1 >> 16) & 0xFF)
	fi, fb := tagFilterIndex(tag)
	off1 := s.bucketOff(int(h1 & s.mask))
	off2 := s.bucketOff(int(h2 & s.mask))

	if s.buf[off1+fi]&fb != 0 {
		if slot := s.scanBucket(off1, tag, key); slot >= 0 {
			s.writeValueInPlace(off1, slot, value)
			s.setClockUsed(off1, slot)
			return 1
		}
		if slot := s.scanBucket(off2, tag, key); slot >= 0 {
			s.writeValueInPlace(off2, slot, value)
			s.setClockUsed(off2, slot)
			return 1
		}
	}

	if slot := firstEmptySlot(s.buf[off1+offPresence]); slot < slotsPerBucket {
		s.writeElement(off1, slot, key, value, tag)
		s.buf[off1+fi] |= fb
		return 0
	}
	if slot := firstEmptySlot(s.buf[off2+offPresence]); slot < slotsPerBucket {
		s.writeElement(off2, slot, key, value, tag)
		s.buf[off1+fi] |= fb // filter is always stored on the first-position bucket
		incSecondPositionCounter(s.buf, off2)
		return 0
	}
	if slot, ok := s.vacate(off1); ok {
		s.writeElement(off1, slot, key, value, tag)
		s.buf[off1+fi] |= fb
		return 0
	}
	if slot, ok := s.vacate(off2); ok {
		s.writeElement(off2, slot, key, value, tag)
		s.buf[off1+fi] |= fb
		incSecondPositionCounter(s.buf, off2)
		return 0
	}
	return -1
}

// vacate attempts cuckoo-style displacement within bucket bOff: for each
// resident slot, recompute the resident's alternate bucket; the first
// resident whose alternate bucket has an empty slot is moved there,
// freeing its slot in bOff for the caller. Returns the freed slot and true
// on success.
func (s *shard) vacate(bOff int) (int, bool) {
	curBucket := bOff / s.stride
	presence := s.buf[bOff+offPresence]
	for slot := 0; slot < slotsPerBucket; slot++ {
		if presence&(1<<uint(slot)) == 0 {
			continue
		}
		so := s.slotOff(bOff, slot)
		residentKey := s.buf[so : so+s.keySize]
		rh1, rh2 := s.hasher.hash(residentKey)
		rb1 := int(rh1 & s.mask)
		rb2 := int(rh2 & s.mask)

		var altBucket int
		var firstPositionWasHere bool
		if rb1 == curBucket {
			altBucket = rb2
			firstPositionWasHere = true
		} else {
			altBucket = rb1
			firstPositionWasHere = false
		}
		if altBucket == curBucket {
			continue // degenerate: both hashes collide on this bucket
		}

		altOff := s.bucketOff(altBucket)
		emptySlot := firstEmptySlot(s.buf[altOff+offPresence])
		if emptySlot >= slotsPerBucket {
			continue
		}

		residentTag := s.buf[bOff+offTags+slot]
		altSo := s.slotOff(altOff, emptySlot)
		copy(s.buf[altSo:altSo+s.elemSize], s.buf[so:so+s.elemSize])
		s.buf[altOff+offTags+emptySlot] = residentTag
		s.buf[altOff+offPresence] |= 1 << uint(emptySlot)
		if s.buf[bOff+offClockUsed]&(1<<uint(slot)) != 0 {
			s.buf[altOff+offClockUsed] |= 1 << uint(emptySlot)
		}

		s.clearElement(bOff, slot)

		if firstPositionWasHere {
			// Resident now lives at altOff as a second-position resident;
			// its filter bit stays at bOff (its first position is
			// unchanged by physical relocation).
			incSecondPositionCounter(s.buf, altOff)
		} else {
			// Resident returns to its first position at altOff; its
			// filter bit was already set there at original insertion.
			decSecondPositionCounter(s.buf, bOff)
		}
		return slot, true
	}
	return 0, false
}

// unset removes key if present. On a b2 hit, the second-position counter
// decremented is b1's, and b1's filter is not reset - left to go stale
// until a future b1 removal. This is deliberate, not a bug to be fixed.
func (s *shard) unset(h1, h2 uint32, key []byte) bool {
	tag := byte((h1 >> 16) & 0xFF)
	fi, fb := tagFilterIndex(tag)
	off1 := s.bucketOff(int(h1 & s.mask))
	if s.buf[off1+fi]&fb == 0 {
		return false
	}
	if slot := s.scanBucket(off1, tag, key); slot >= 0 {
		s.clearElement(off1, slot)
		s.filterReset(off1, fi)
		return true
	}
	off2 := s.bucketOff(int(h2 & s.mask))
	if slot := s.scanBucket(off2, tag, key); slot >= 0 {
		s.clearElement(off2, slot)
		decSecondPositionCounter(s.buf, off1)
		return true
	}
	return false
}

// cache returns 0=inserted-without-eviction, 1=updated,
// 2=inserted-with-eviction. Cache mode never searches b2.
// onEvict, if non-nil, is invoked with a fresh copy of the evicted key
// before its slot is reused.
func (s *shard) cache(h1 uint32, key, value []byte, onEvict func([]byte)) int {
	tag := byte((h1 >> 16) & 0xFF)
	fi, fb := tagFilterIndex(tag)
	off1 := s.bucketOff(int(h1 & s.mask))

	if s.buf[off1+fi]&fb != 0 {
		if slot := s.scanBucket(off1, tag, key); slot >= 0 {
			s.writeValueInPlace(off1, slot, value)
			s.setClockUsed(off1, slot)
			return 1
		}
	}

	victimSlot, occupied := s.evict(off1)
	if occupied {
		if onEvict != nil {
			so := s.slotOff(off1, victimSlot)
			evictedKey := make([]byte, s.keySize)
			copy(evictedKey, s.buf[so:so+s.keySize])
			onEvict(evictedKey)
		}
		victimTag := s.buf[off1+offTags+victimSlot]
		vfi, _ := tagFilterIndex(victimTag)
		s.clearElement(off1, victimSlot)
		s.filterReset(off1, vfi)
	}

	s.writeElement(off1, victimSlot, key, value, tag)
	s.buf[off1+fi] |= fb
	s.setClockUsed(off1, victimSlot)

	if occupied {
		return 2
	}
	return 0
}

// evict runs the CLOCK sweep"): up to nine ticks
// guarantee forward progress after one full pass clears every used bit.
func (s *shard) evict(bOff int) (slot int, occupied bool) {
	hand := int(s.buf[bOff+offClockHand])
	for i := 0; i < 9; i++ {
		candidate := hand
		hand = (hand + 1) & 7
		if s.buf[bOff+offClockUsed]&(1<<uint(candidate)) == 0 {
			s.buf[bOff+offClockHand] = byte(hand)
			occupied = s.buf[bOff+offPresence]&(1<<uint(candidate)) != 0
			return candidate, occupied
		}
		s.buf[bOff+offClockUsed] &^= 1 << uint(candidate)
	}
	// Unreachable given the invariant above, but kept defensive rather
	// than panicking: return the last candidate examined.
	s.buf[bOff+offClockHand] = byte(hand)
	last := (hand - 1) & 7
	occupied = s.buf[bOff+offPresence]&(1<<uint(last)) != 0
	return last, occupied
}

// filterReset aborts (no-op) unless the bucket currently has zero
// second-position residents and the target filter bucket is non-empty;
// otherwise rebuilding from this bucket's own occupied slots would be
// authoritative only for first-position residents.
func (s *shard) filterReset(bOff, fi int) {
	if s.buf[bOff+offSecondCounter] != 0 {
		return
	}
	if s.buf[bOff+fi] == 0 {
		return
	}
	s.buf[bOff+fi] = 0
	presence := s.buf[bOff+offPresence]
	for slot := 0; slot < slotsPerBucket; slot++ {
		if presence&(1<<uint(slot)) == 0 {
			continue
		}
		t := s.buf[bOff+offTags+slot]
		tfi, tfb := tagFilterIndex(t)
		if tfi == fi {
			s.buf[bOff+fi] |= tfb
		}
	}
}

// errResizeRebuildFailed signals that newBucketCount was a legal target but
// the rehash still produced a -1 from set() on some element; the shard was
// restored. The coordinator treats this differently from a precondition
// violation: it still has a second, larger tier to try before giving up
//.
var errResizeRebuildFailed = NewErrSetExhausted(-1)

// resize rebuilds the shard into a fresh buffer of newBucketCount buckets
//. It first checks newBucketCount against the hard
// resource limits and refuses without
// touching the shard if they would be exceeded. On any other failure the
// shard is left exactly as it was and errResizeRebuildFailed is returned.
func (s *shard) resize(newBucketCount int) error {
	if newBucketCount > bucketCountMax {
		return NewErrCapacityExceeded("bucketCount would exceed BUCKETS_MAX")
	}
	if int64(s.stride)*int64(newBucketCount) > bufferMax {
		return NewErrCapacityExceeded("shard buffer would exceed BUFFER_MAX")
	}

	oldBuf := s.buf
	oldCount := s.bucketCount
	oldMask := s.mask
	oldStride := s.stride

	s.buf = make([]byte, s.stride*newBucketCount)
	s.bucketCount = newBucketCount
	s.mask = uint32(newBucketCount - 1)

	for b := 0; b < oldCount; b++ {
		bOff := b * oldStride
		presence := oldBuf[bOff+offPresence]
		for slot := 0; slot < slotsPerBucket; slot++ {
			if presence&(1<<uint(slot)) == 0 {
				continue
			}
			so := bOff + offSlots + slot*s.elemSize
			key := oldBuf[so : so+s.keySize]
			value := oldBuf[so+s.keySize : so+s.elemSize]
			h1, h2 := s.hasher.hash(key)
			if s.set(h1, h2, key, value) == -1 {
				s.buf = oldBuf
				s.bucketCount = oldCount
				s.mask = oldMask
				return errResizeRebuildFailed
			}
		}
	}
	return nil
}

// liveCount scans every bucket's presence bitmap and returns the number of
// occupied slots. Used by the coordinator to recompute length after a
// resize without threading a running counter through vacate/evict.
func (s *shard) liveCount() int {
	n := 0
	for b := 0; b < s.bucketCount; b++ {
		presence := s.buf[s.bucketOff(b)+offPresence]
		for presence != 0 {
			n++
			presence &= presence - 1
		}
	}
	return n
}
