package filter

import (
	"bufio"
	"fmt"
	"os"

	"github.com/codewithboateng/pcfilter/internal/ir"
)

// FormatEntry renders one skip-list line (without the newline).
func FormatEntry(path string) string {
	return `- "` + path + `"`
}

// AppendEntries appends one line per entry to the skip list at path, creating
// the file if needed. Existing content is never truncated.
func AppendEntries(path string, entries []ir.Entry) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open skip list: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close skip list: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.WriteString(FormatEntry(e.Path) + "\n"); err != nil {
			return fmt.Errorf("write skip list: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush skip list: %w", err)
	}
	return nil
}
