// Package codec centralizes snapshot payload encoding.
//
// Snapshots record the codec name in their header, so changing the default
// codec never breaks existing files: the loader selects the codec by name.
package codec

import (
	"fmt"
	"slices"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for new snapshots.
var Default Codec = Binary{}

var builtin = map[string]Codec{
	Binary{}.Name(): Binary{},
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}

// Parse is like ByName but returns an error naming the known codecs.
// The empty string selects Default.
func Parse(name string) (Codec, error) {
	if name == "" {
		return Default, nil
	}
	if c, ok := ByName(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("codec: unknown codec %q (known: %v)", name, Names())
}

// Names returns the names of the built-in codecs, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
