// Package types defines the entity types, the Store and Backend interfaces,
// and the standard errors for the stager version library.
//
// Entities (Job, Scene, Asset, Version) are plain structs with in-memory
// transition methods; callers persist changes through a Store. The ledger
// and library packages build the lifecycle and query semantics on top.
package types
