// Package permissions provides the permission set attached to a session
// and local matching against it, including global ("*") and namespace
// ("credits.*") wildcards. Checks are purely local; permissions can be
// briefly stale until the next token validation or refresh.
package permissions
