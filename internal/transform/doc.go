// Package transform reshapes a raw extraction snapshot into flat
// relational tables: albums, tracks, audio features, categories, and an
// optional tracks-with-features merge. It performs no I/O; missing
// fields resolve to documented defaults or nulls and an empty input
// yields well-formed empty tables rather than errors.
package transform
