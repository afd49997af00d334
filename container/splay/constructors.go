package splay

import "github.com/go-numdb/numdb/internal/khash"

// NewBottomNode builds a splay tree that evicts via pseudo-random descent,
// per spec.md §4.5's "bottom node" variant.
func NewBottomNode[K khash.Hashable, V any](availableMemory int, newStrategy func(uint64) Strategy) (*Tree[K, V], error) {
	return newTree[K, V](availableMemory, newStrategy, bottomNode[K, V]{})
}

// NewLRU builds a splay tree that evicts the least recently touched node.
func NewLRU[K khash.Hashable, V any](availableMemory int, newStrategy func(uint64) Strategy) (*Tree[K, V], error) {
	return newTree[K, V](availableMemory, newStrategy, &lru[K, V]{})
}

// NewLFU builds a splay tree that evicts the least frequently touched node.
func NewLFU[K khash.Hashable, V any](availableMemory int, newStrategy func(uint64) Strategy) (*Tree[K, V], error) {
	return newTree[K, V](availableMemory, newStrategy, &lfu[K, V]{})
}
