// Package heap is a reference host heap living in linear memory.
//
// An Arena carves a region of a Memory into a reserved word, the local
// roots head cell, the root table area, an external buffer store and two
// semispaces. Blocks are bump-allocated in the active semispace; when it
// fills up (or every CollectEvery allocations) a Cheney copying collection
// moves every block reachable from the registered roots into the other
// semispace and rewrites the roots in place.
//
// Arena layout starting at Config.Base:
//
//	+0                 reserved (never a valid block)
//	+8                 local roots head cell
//	+16                root table area      (RootArea bytes)
//	...                external store       (ExternalArea bytes)
//	...                semispace A | semispace B
//
// The collector marks a moved block by setting its header color to 3 and
// storing the new address in its first field, so blocks have at least one
// field.
package heap
