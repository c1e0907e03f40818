// Package ledger owns the lifecycle of Version records: creation,
// generation and legacy status transitions, single approval per asset,
// deletion locks, and deriving new versions (duplicate, retry, HQ, native
// 4K, final) from existing ones.
//
// The ledger talks only to Store capabilities. It never calls an image
// provider or touches files; callers run generation around it and report
// results back through SetOutput and SetGenerationStatus.
//
// Approval touches every sibling of the target asset. Stores are not
// transactional, so demotions are written before the promotion: a crash
// midway leaves zero approved versions, never two.
package ledger
