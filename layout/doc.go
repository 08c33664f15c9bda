// Package layout decodes host heap words.
//
// A word whose low bit is set is an immediate: the payload sits in the
// upper 63 bits. Any other word is the address of a block's first field;
// the block's header word sits 8 bytes before it:
//
//	 63             10 9   8 7       0
//	┌─────────────────┬─────┬─────────┐
//	│     wosize      │color│   tag   │  header (address - 8)
//	└─────────────────┴─────┴─────────┘
//	│ field 0 │ field 1 │ ... │ field wosize-1 │
//
// Blocks with a tag below NoScanTag hold only words; blocks at or above it
// hold opaque payload (strings, boxed floats, custom blocks).
//
// This is the only package that performs offset arithmetic on the heap.
// Every accessor checks the layout it is about to interpret and raises an
// errors.Fatal contract violation on mismatch.
//
// The package also owns the layout of local root tables, the intrusive
// chain the host collector walks to find values held by native code:
//
//	┌──────┬─────────┬────────┬───────────┬──────────────────┐
//	│ next │ ntables │ nitems │ tables[5] │ locals[capacity] │
//	└──────┴─────────┴────────┴───────────┴──────────────────┘
package layout
