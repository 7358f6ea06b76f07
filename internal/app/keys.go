package app

import "github.com/mpham/mailboard/internal/keys"

// KeyMap is re-exported from the keys package so code that references
// app.KeyMap continues to work.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
