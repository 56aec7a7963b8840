package dbcheck

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// PromptPassword asks for the database password of user without echo.
// The caller wipes the returned bytes once done.
func PromptPassword(w io.Writer, user string) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "Database password for %s: ", user); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
