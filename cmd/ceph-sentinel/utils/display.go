// Package utils contains small helpers for the ceph-sentinel CLI.
package utils

import (
	"fmt"
)

// DisplayLogo prints the ceph-sentinel banner with version information
func DisplayLogo(version string) {
	fmt.Println()
	fmt.Println(` ░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░
 ░█▀▀░█▀▀░█▀█░█░█░░░█▀▀░█▀▀░█▀█░▀█▀░░
 ░█░░░█▀▀░█▀▀░█▀█░░░▀▀█░█▀▀░█░█░░█░░░
 ░▀▀▀░▀▀▀░▀░░░▀░▀░░░▀▀▀░▀▀▀░▀░▀░░▀░░░
 ░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░`)
	fmt.Printf("\n ceph-sentinel v%s - Ceph client IO watchdog\n", version)
	fmt.Println(" Samples client IO, restarts a stuck OSD, tells you about it")
	fmt.Println()
}
