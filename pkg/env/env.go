// Package env has small helpers for reading process environment values
// before the full config is loaded.
package env

import "os"

// Get returns the environment value for key, or fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
