package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// formatTimestamp renders a record time in the local zone, RFC3339.
func formatTimestamp(t time.Time) string {
	return t.Local().Format(time.RFC3339)
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// truncate shortens s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}
