package datastructures

import "iter"

// TrieNode maps string prefixes to values. Callback data is routed by its longest registered prefix.
type TrieNode[T any] struct {
	children map[rune]*TrieNode[T]
	isLeaf   bool
	val      T
}

func NewTrieNode[T any]() TrieNode[T] {
	return TrieNode[T]{children: make(map[rune]*TrieNode[T], 16)}
}

func (node *TrieNode[T]) IsLeaf() bool {
	return node.isLeaf
}

func (node *TrieNode[T]) Val() T {
	return node.val
}

func (root *TrieNode[T]) Insert(key string, val T) {
	cur := root
	for _, char := range key {
		if cur.children == nil {
			cur.children = make(map[rune]*TrieNode[T], 16)
		}
		if cur.children[char] == nil {
			cur.children[char] = &TrieNode[T]{children: make(map[rune]*TrieNode[T], 4)}
		}
		cur = cur.children[char]
	}
	cur.isLeaf = true
	cur.val = val
}

func (root *TrieNode[T]) SearchExact(key string) (T, bool) {
	var result T
	cur := root
	for _, char := range key {
		if cur.children[char] == nil {
			return result, false
		}
		cur = cur.children[char]
	}
	return cur.val, cur.isLeaf
}

// Search returns the value of the longest inserted key that prefixes key
func (root *TrieNode[T]) Search(key string) (T, bool) {
	var result T
	found := root.isLeaf
	if found {
		result = root.val
	}
	cur := root
	for _, char := range key {
		if cur.children[char] == nil {
			break
		}
		cur = cur.children[char]
		if cur.isLeaf {
			result = cur.val
			found = true
		}
	}
	return result, found
}

// Keys yields every inserted key in no particular order.
func (root *TrieNode[T]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		root.walk([]rune{}, yield)
	}
}

func (node *TrieNode[T]) walk(prefix []rune, yield func(string) bool) bool {
	if node.isLeaf && !yield(string(prefix)) {
		return false
	}
	for char, child := range node.children {
		if !child.walk(append(prefix, char), yield) {
			return false
		}
	}
	return true
}
