package hashutil

import (
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// Sum32 computes the 32-bit FNV-1a hash of a string.
func Sum32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// SyntheticID derives a deterministic identifier for a group that has no
// predecessor to inherit from. The hash covers the sorted member list and
// the group's ordinal position, so two engines given identical inputs mint
// identical ids.
func SyntheticID(prefix string, sortedMembers []string, ordinal int) string {
	h := fnv.New32a()
	for _, m := range sortedMembers {
		h.Write([]byte(m))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.Itoa(ordinal)))
	return prefix + "-" + strconv.FormatUint(uint64(h.Sum32()), 16)
}

// PairAngle returns a deterministic pseudo-random-looking angle in [0, 2π)
// for separating two coincident points. The angle depends only on the two
// keys, order-insensitive, so repeated frames break ties the same way.
func PairAngle(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	h := Sum32(a + "\x00" + b)
	return (float64(h) / float64(math.MaxUint32)) * 2 * math.Pi
}

// IndexAngle is PairAngle for index-addressed working buffers.
func IndexAngle(i, j int) float64 {
	if j < i {
		i, j = j, i
	}
	h := Sum32(strconv.Itoa(i) + ":" + strconv.Itoa(j))
	return (float64(h) / float64(math.MaxUint32)) * 2 * math.Pi
}

// JoinKey builds a stable composite key from parts.
func JoinKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}
