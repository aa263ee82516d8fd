// Package util provides small helpers shared by the binaries.
package util

import (
	"fmt"
	"io"
)

// na returns "N/A" if the input string is empty, otherwise it returns the input string.
func na(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// BuildInfo carries the values stamped in with -ldflags at build time.
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

// Fprint writes the build version, date, and commit information to w.
func (b BuildInfo) Fprint(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Build version: %s\nBuild date: %s\nBuild commit: %s\n",
		na(b.Version), na(b.Date), na(b.Commit))
	return err
}

// String renders the build information on a single line for logs.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", na(b.Version), na(b.Commit), na(b.Date))
}
