/*
Package types defines the data model used across the storage engine core.

# Identifiers

BlockUid is a pair of uint64s rendered as "%016x-%016x" wherever it needs to
become part of an object key. VersionUid is a small integer rendered as a
fixed-width "V"-prefixed readable token ("V0000000001") that round-trips
through ParseVersionUid.

# Block and Metadata

Block is the dereferenced handle the rest of the engine passes around: a UID,
a declared size, and (for blocks, never for versions) a checksum. The engine
never mutates a Block it is given.

Metadata mirrors the JSON sidecar object written next to every stored
payload. Its field order is fixed by struct declaration order, which is also
the canonical encoding used for HMAC computation (see pkg/metadata) — Go's
encoding/json always emits struct fields in declaration order, so unlike a
language where a plain dict's iteration order is insertion-dependent, no
extra sorting step is needed to get a deterministic wire form.
*/
package types
