// Package search ranks stored memories against a query by blending keyword
// and vector retrieval.
//
// Invariants:
// - Returned scores are clamped to [0,1] and never fall below the caller's
//   minimum, even though hybrid sub-searches run at a relaxed threshold.
// - Result count never exceeds the requested limit.
// - A memory never crosses user scopes, regardless of match strength.
// - For a fixed data set and fixed inputs, repeated searches return
//   identical ordering and scores.
//
// Usage:
//
//	engine, _ := search.New(search.Config{Store: store, Index: store, Vectors: store, Gateway: gw})
//	resp, _ := engine.Search(ctx, search.DefaultParams(1, "mysql connection settings"))
//	_ = resp.Results
package search
