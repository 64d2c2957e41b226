//go:build windows

package preflight

import "os"

// checkAccess probes writability by creating and removing a file; Windows
// ACLs are not reflected in mode bits.
func checkAccess(path string) error {
	probe, err := os.CreateTemp(path, ".vibemix-access-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
