package qrfs

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// PromptPassphrase reads a passphrase from the controlling terminal without
// echoing it, the way every CLI binary here is required to when one
// isn't supplied on the command line.
func PromptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIO, err)
	}
	return string(b), nil
}
