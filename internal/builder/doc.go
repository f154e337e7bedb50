// Package builder provides the load/transform/save lifecycle shared by every
// artifact family.
//
// A Base holds one current artifact of type T. Load resolves it from a file
// path or a cache name (path wins), Save writes it to a file path and/or a
// cache name independently. Failures are logged where they happen and latch
// into a sticky error, so a chain of calls stops doing work after the first
// failure and the command returns Err() once at the end.
//
// Family packages wrap Base in their own Builder type whose methods return
// the concrete builder, keeping chains like
//
//	b.Load(src).Resize(w, h).Save(dst)
//
// type-safe.
package builder
