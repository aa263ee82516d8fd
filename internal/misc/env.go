// Package misc holds small helpers shared across adapters: environment lookup, keyed
// hashing and typed object pools.
package misc

import (
	"os"
	"strings"
)

// Lookupenv reports whether key is set to a non-blank value.
func Lookupenv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// GetList splits a comma separated variable, dropping blank items.
func GetList(key string) []string {
	v, ok := Lookupenv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
