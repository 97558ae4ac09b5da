// Package main provides the entry point for the bookmarks CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/bookmarks/cmd/bookmarks/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
