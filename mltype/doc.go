// Package mltype describes host types as a closed set of kinds.
//
// A Type is a kind plus its element types. Composite descriptors such as a
// pair of options or a list of pairs are built by composition:
//
//	mltype.List(mltype.Pair(mltype.String, mltype.Option(mltype.Int)))
//	// (string * int option) list
//
// Name renders the canonical host-language spelling used in external
// declarations.
package mltype
