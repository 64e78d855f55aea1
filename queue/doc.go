// Package queue provides the binary heaps used by graph traversal.
package queue
