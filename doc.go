/*
Package mmdbval decodes records from MaxMind DB (.mmdb) databases into
generic value trees.

The package is split along the natural seam of the format:

1. A producer (package mmdbfile) resolves an IP address against the search
trie and walks the record's portion of the data section, flattening it into
a pre-order sequence of tagged entries. Pointers are resolved during the
walk, so the sequence is self-contained.

2. The decoder in this package consumes that flat sequence and rebuilds the
nested structure as a Value tree: ordered maps, arrays and scalars. The
decoder knows nothing about IP addresses, files or output formats.

3. Consumers render the tree (JSON, indented text, msgpack) or pick fields
out of it.

# Entry sequences

An Entry is one node of the pre-order flattening. A composite entry (Map,
Array) carries a count, and its children are the entries that immediately
follow it, each child recursively flattened in turn. A Map with 2 pairs is
therefore followed by key, value, key, value, where each value may itself
be a composite spanning many entries.

The decoder is a single-pass recursive descent over this sequence: every
decode call returns the cursor position immediately after the subtree it
consumed, and the caller threads that position into the next child. No
subtree is ever scanned twice.

# Value trees

Value is a sealed union with one variant per supported tag, so consumers
can switch over it exhaustively. Maps preserve encounter order; duplicate
keys resolve to the last occurrence. A decoded tree holds full copies of
all payload bytes and stays valid after the database is closed.

# Byte order

All multi-byte scalars in the format are big-endian, including the 8-byte
IEEE-754 doubles. The conversion is applied uniformly regardless of where
a scalar appears: map value, array element or bare scalar.
*/
package mmdbval
