// Package memory persists agent memory records and their retrieval indexes.
//
// Invariants:
// - A memory key is unique within a user scope; re-storing under the same
//   key upserts content without touching created_at.
// - Inactive records never surface from read paths but are retained.
// - Keyword weights stay within [0,1]; a (memory_key, keyword) pair is
//   stored at most once per user.
// - Records without an embedding are absent from the vector table and
//   therefore never appear as semantic candidates.
//
// Usage:
//
//	store, _ := memory.Open(memory.Config{DBPath: "/data/recall.db", Dimension: 1536})
//	defer store.Close()
//	_ = store.Save(ctx, memory.Record{UserID: 1, MemoryKey: "build-log", Content: "..."})
//	recs, _ := store.GetByKeys(ctx, 1, []string{"build-log"})
//	_ = recs
package memory
