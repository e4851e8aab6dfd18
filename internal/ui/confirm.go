package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfirmDanger asks a yes/no question on w for a destructive action and
// reads the answer from r. Anything but y/yes is a no.
func ConfirmDanger(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
