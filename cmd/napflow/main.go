// NapFlow is a power-nap timer with XP, levels and streaks.
//
// Usage:
//
//	napflow [run] [--config napflow.yaml] [--verbose] [--quiet] [--log-file path] [--store backend]
//	napflow presets | stats | history [--days N] | rename <name> | reset --yes
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
