// Package cache stores complete query results on disk with a TTL.
//
// Re-running the same query against the same server and graph within the TTL is
// answered from ~/.sagequery/cache without contacting the server. Entries are
// JSON files named by the SHA-256 of the normalized query key (see QueryKey), so
// lookups are deterministic and file names are always filesystem-safe.
//
// When the store grows beyond its size budget, Prune evicts the oldest entries
// first.
package cache
