// Package mindmap holds the in-memory document and chat state for the
// MindMesh server.
//
// Storage is process-local by design: documents and chat logs live in
// mutex-guarded maps owned by explicit store types and are discarded on
// restart. Both stores hand out defensive copies so callers can marshal or
// inspect results without racing concurrent mutations.
package mindmap
