// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmstanone/blocksci-compilable/chain"
)

const (
	offsetsFileName   = "offsets.bin"
	addressesFileName = "addresses.bin"
	indexFileExt      = ".bin"

	// addressRecordSize is the size of a serialized dedup address.
	addressRecordSize = 8
)

// typeIndexFileName returns the name of the file mapping the script numbers
// of the dedup type to cluster IDs.
func typeIndexFileName(d chain.DedupType) string {
	return d.String() + indexFileExt
}

// indexPaths returns the paths of every file making up an index in the
// directory.
func indexPaths(dir string) []string {
	paths := make([]string, 0, chain.NumDedupTypes+2)
	for d := chain.DedupType(0); d < chain.NumDedupTypes; d++ {
		paths = append(paths, filepath.Join(dir, typeIndexFileName(d)))
	}
	paths = append(paths, filepath.Join(dir, offsetsFileName))
	return append(paths, filepath.Join(dir, addressesFileName))
}

// prepareOutputDir ensures the directory can receive a new index.  It is
// created when it does not exist.  Existing index files are removed when
// overwrite is set and are an error otherwise.  Files that are not part of
// an index are left alone.
func prepareOutputDir(dir string, overwrite bool) error {
	fi, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0700); err != nil {
			str := fmt.Sprintf("cannot create directory %s: %v", dir, err)
			return makeError(ErrCreateDirectory, str)
		}
		return nil

	case err != nil:
		str := fmt.Sprintf("cannot access %s: %v", dir, err)
		return makeError(ErrNotDirectory, str)

	case !fi.IsDir():
		str := fmt.Sprintf("path %s must be a directory, not a file", dir)
		return makeError(ErrNotDirectory, str)
	}

	for _, path := range indexPaths(dir) {
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if !overwrite {
			str := fmt.Sprintf("overwrite is off, but %s exists already",
				path)
			return makeError(ErrOutputExists, str)
		}
		if err := os.Remove(path); err != nil {
			str := fmt.Sprintf("cannot remove %s: %v", path, err)
			return makeError(ErrRemoveExisting, str)
		}
		log.Debugf("Removed existing index file %s", path)
	}
	return nil
}
