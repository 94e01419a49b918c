// Package cache persists captured help text between chitin invocations.
//
// The store is a single JSON file under the per-user chitin directory,
// mapping a subcommand-path key to the rebranded text plus the version pair
// and timestamp it was captured under. Each invocation loads the file fresh,
// and every write replaces the whole file via temp-file-then-rename so
// concurrent or interrupted writers can never leave a truncated cache behind.
//
// Caching is a pure optimization: a missing, corrupt, or unwritable cache
// degrades to delegating the request, never to a user-visible error.
package cache
