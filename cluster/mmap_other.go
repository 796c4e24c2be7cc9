// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !unix

package cluster

import (
	"io"
	"os"
)

// mapFile reads the entire file into memory.
func mapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

// unmapFile releases a buffer created by mapFile.
func unmapFile([]byte) error {
	return nil
}
