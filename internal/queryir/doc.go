// Package queryir provides the predicate intermediate representation used by
// the entry store for scans and deletes.
//
// The IR sits between the cache components and the SQL backend:
//
//	[usercache / syncer] → [Query IR] → [querysql] → SQLite
//
// Components describe what rows they want (key, type, time window, payload
// pattern) and the store compiles that into parameterized SQL. Nothing above
// the store builds SQL strings.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, which keeps backend type
// switches exhaustive.
//
// Query types:
//   - Select: filtered, ordered, optionally limited row scan
//   - Delete: filtered row removal
//
// Predicate types:
//   - Compare: field <op> value, with =, !=, <, <=, >, >=
//   - In: field IN (values...)
//   - Like: field LIKE pattern
//   - And: conjunction (empty = always true)
//
// There is no OR predicate; multiple types are expressed with In.
package queryir
