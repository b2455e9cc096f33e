package validation

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/tombstone/pkg/syntax"
)

// UsedSet records referenced declarations by position: one bitmap of
// declaration start offsets per tree. Declarations never share a start
// offset within a tree, so the offset is enough to tell them apart.
type UsedSet struct {
	trees map[uint64]*roaring.Bitmap
}

// NewUsedSet creates an empty set.
func NewUsedSet() *UsedSet {
	return &UsedSet{trees: make(map[uint64]*roaring.Bitmap)}
}

// Add marks decl as used.
func (u *UsedSet) Add(decl syntax.Declaration) {
	key := decl.Key()
	bm, ok := u.trees[key.Tree]
	if !ok {
		bm = roaring.New()
		u.trees[key.Tree] = bm
	}
	bm.Add(key.Start)
}

// Contains reports whether decl was marked used.
func (u *UsedSet) Contains(decl syntax.Declaration) bool {
	key := decl.Key()
	bm, ok := u.trees[key.Tree]
	return ok && bm.Contains(key.Start)
}

// Len returns the number of distinct used declarations.
func (u *UsedSet) Len() uint64 {
	var n uint64
	for _, bm := range u.trees {
		n += bm.GetCardinality()
	}
	return n
}
