// Package khash turns arbitrary comparable cache keys into a 64-bit hash.
//
// Hashing itself is an external collaborator (numdb never reimplements a
// hash function): it hands every byte-representable key to xxhash, the
// same non-cryptographic hash the teacher package already depended on.
package khash

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hashable restricts keys that this package knows how to turn into bytes
// without reflection. Every container in this module hashes its keys through
// Of, so container key types are limited to this set.
type Hashable interface {
	string | int | int32 | int64 | uint | uint32 | uint64
}

// Of hashes a scalar key the same way ecache2's hashKey dispatched on key
// type, except the per-type arithmetic is replaced by a single strong hash.
func Of[K Hashable](key K) uint64 {
	switch k := any(key).(type) {
	case string:
		return xxhash.Sum64String(k)
	case int:
		return xxhash.Sum64String(strconv.FormatInt(int64(k), 10))
	case int32:
		return xxhash.Sum64String(strconv.FormatInt(int64(k), 10))
	case int64:
		return xxhash.Sum64String(strconv.FormatInt(k, 10))
	case uint:
		return xxhash.Sum64String(strconv.FormatUint(uint64(k), 10))
	case uint32:
		return xxhash.Sum64String(strconv.FormatUint(uint64(k), 10))
	case uint64:
		return xxhash.Sum64String(strconv.FormatUint(k, 10))
	default:
		return xxhash.Sum64String(strconv.FormatUint(uint64(0), 10))
	}
}
