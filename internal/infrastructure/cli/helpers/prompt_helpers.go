package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks question on out and reads a y/N answer from in.
// Anything other than y or yes declines, including EOF.
func Confirm(out io.Writer, in io.Reader, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return isAffirmativeResponse(strings.ToLower(strings.TrimSpace(line)))
}

func isAffirmativeResponse(response string) bool {
	return response == "y" || response == "yes"
}
