package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptNotes asks for notes on the entry being closed. Outside a terminal
// it returns blank notes.
func promptNotes(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}
	return readNotes(os.Stdin, os.Stdout, label)
}

func readNotes(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "Notes for %s (enter to skip): ", label)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read notes: %w", err)
	}
	return strings.TrimSpace(line), nil
}
