// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build unix

package cluster

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps the entire file read-only into memory.
func mapFile(f *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
}

// unmapFile releases a mapping created by mapFile.
func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
