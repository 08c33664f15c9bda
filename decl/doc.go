// Package decl renders exported function descriptors as host-side
// declarations.
//
// Line produces one external declaration per function in the host
// language's binding syntax:
//
//	external strtail : string -> string option = "strtail"
//
// EmitWIT renders the same list as a WIT interface for tooling that speaks
// the component model. Signatures with type variables or records have no
// WIT equivalent and are kept as comments.
package decl
