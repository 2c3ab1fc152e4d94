// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tree

// entry is the most recent topic seen at one depth.
type entry struct {
	code string
	idx  int // index of the node in Output.Nodes

	// letter marks a lettered item; hint is its indentation level.
	letter bool
	hint   int

	// excluded marks a topic dropped by the dialect's skip predicate. Items
	// nested under it are dropped too.
	excluded bool
}

// frame maps depth to the most recent topic at that depth. Setting a depth
// invalidates every deeper entry so later items cannot attach to an ancestor
// that has gone out of scope.
type frame struct {
	entries []entry
}

func (f *frame) set(depth int, e entry) {
	for len(f.entries) <= depth {
		f.entries = append(f.entries, entry{})
	}
	f.entries[depth] = e
	f.entries = f.entries[:depth+1]
}

// at returns the entry at depth and whether it is valid.
func (f *frame) at(depth int) (entry, bool) {
	if depth < 0 || depth >= len(f.entries) {
		return entry{}, false
	}
	e := f.entries[depth]
	return e, e.code != "" || e.excluded
}

func (f *frame) reset() {
	f.entries = f.entries[:0]
}
