// Package store persists the current cross-app session keyed per member
// app identity. One session per app ID is stored at a time; saving a new
// one overwrites the prior entry.
//
// Three implementations ship out of the box: MemoryStore for tests and
// ephemeral use, FileStore as the durable local-storage analog for CLI and
// desktop apps, and RedisStore for server-side apps.
package store
