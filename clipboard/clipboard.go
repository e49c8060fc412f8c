// Package clipboard wraps the system clipboard for the one thing the
// tray needs: handing the user an input-source identifier as text.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}
