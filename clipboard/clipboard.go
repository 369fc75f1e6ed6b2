package clipboard

import (
	"golang.design/x/clipboard"
)

// Init must be called once before Write.
func Init() error {
	return clipboard.Init()
}

// Write places text on the system clipboard.
func Write(text string) error {
	// Write returns a channel signaling loss of ownership, not an error.
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
