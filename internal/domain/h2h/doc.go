// Package h2h implements the value objects shared by the gallery ingestion
// and deduplication engine.
//
// # Entities
//
// Gallery is the unit of ingestion: a folder of image files plus a
// galleryinfo.txt sidecar. It is identified on disk by GalleryName (the
// folder name, the stable natural key) and carries a GID (the public
// integer identifier embedded in the folder name's trailing brackets).
// File is a regular file under a Gallery folder. Hash is a content digest
// of a File under one of eleven algorithms. TagPair is a (name, value)
// pair describing a Gallery.
//
// # Value Objects
//
//   - GID: the public upstream integer identifier.
//   - GalleryName: the ≤255 byte natural key, fixed-width split into
//     indexable parts by NameParts.
//   - TagPair: a normalized (name, value) pair, ≤191 bytes each.
//   - HashAlgorithm: one of the eleven supported digest algorithms.
//   - GalleryInfo: the parsed galleryinfo.txt sidecar value.
//
// # Design Principles
//
// Every value object validates its own invariants in its constructor and
// is immutable afterward. No infrastructure dependency lives in this
// package; the persistence and ingestion packages depend on it, not the
// reverse.
package h2h
