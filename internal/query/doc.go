// Package query implements the listing pipeline shared by every record kind:
// free-text search, ordering on plain columns or derived statistics
// (optionally restricted to a trailing time window) and pagination.
//
// A record kind is described once by a Descriptor; List compiles the
// descriptor and the request Params into parameterized SQL. Values are never
// interpolated into the SQL text.
package query
