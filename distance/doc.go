// Package distance provides the vector math used by the indexes.
//
// Collections compare vectors by cosine distance. Indexes store
// L2-normalized vectors so that cosine distance reduces to 1 - dot.
//
// # Usage
//
//	v, ok := distance.NormalizeL2Copy(vec)
//	d := distance.Cosine(a, b)
package distance
