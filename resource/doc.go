// Package resource bounds the shared resources of a store: concurrent queries
// and snapshot IO bandwidth.
package resource
