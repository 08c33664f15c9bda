// Package exports holds lists of exported functions: the entry points the
// host runtime calls with raw words, and the declarations it binds them by.
//
// Each call runs its body inside a fresh bridge scope, decodes the
// arguments into typed values and returns one encoded word. Every module
// also answers print_module, which writes one external declaration per
// function to the module's writer and returns unit.
package exports
