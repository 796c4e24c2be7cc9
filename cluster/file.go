// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"encoding/binary"
	"fmt"
	"os"
)

// indexFile is a read-only view of one file of a persisted index.
type indexFile struct {
	path string
	data []byte
	f    *os.File
}

// openIndexFile maps the file at the path.  The size of the file must be a
// multiple of recordSize.
func openIndexFile(path string, recordSize int) (*indexFile, error) {
	f, err := os.Open(path)
	if err != nil {
		str := fmt.Sprintf("cannot open %s: %v", path, err)
		return nil, makeError(ErrCorruptIndex, str)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		str := fmt.Sprintf("cannot stat %s: %v", path, err)
		return nil, makeError(ErrCorruptIndex, str)
	}
	size := fi.Size()
	if size%int64(recordSize) != 0 || size > int64(^uint(0)>>1) {
		f.Close()
		str := fmt.Sprintf("%s has size %d which is not a multiple of %d",
			path, size, recordSize)
		return nil, makeError(ErrCorruptIndex, str)
	}

	file := &indexFile{path: path, f: f}
	if size == 0 {
		return file, nil
	}
	file.data, err = mapFile(f, int(size))
	if err != nil {
		f.Close()
		str := fmt.Sprintf("cannot map %s: %v", path, err)
		return nil, makeError(ErrCorruptIndex, str)
	}
	return file, nil
}

// uint32Len returns the number of uint32 values in the file.
func (f *indexFile) uint32Len() uint32 {
	return uint32(len(f.data) / 4)
}

// uint32At returns the i'th uint32 value in the file.
func (f *indexFile) uint32At(i uint32) uint32 {
	return binary.NativeEndian.Uint32(f.data[4*int(i):])
}

// close releases the file.
func (f *indexFile) close() error {
	var err error
	if f.data != nil {
		err = unmapFile(f.data)
		f.data = nil
	}
	if closeErr := f.f.Close(); err == nil {
		err = closeErr
	}
	return err
}
