// Package conv provides checked integer conversions.
//
// Use it where a value crosses between Go's platform-sized int and the fixed
// width types used for index slots and snapshot length prefixes.
package conv
