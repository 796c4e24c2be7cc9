// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmstanone/blocksci-compilable/chain"
	"golang.org/x/sync/errgroup"
)

// clusterOffsets returns the prefix sums of the member counts of every
// cluster.  The members of cluster c are at positions [offsets[c],
// offsets[c+1]) of the address list.
func clusterOffsets(clusterIDs []uint32, clusterCount uint32) []uint32 {
	offsets := make([]uint32, clusterCount+1)
	for _, c := range clusterIDs {
		offsets[c+1]++
	}
	for i := 1; i < len(offsets); i++ {
		offsets[i] += offsets[i-1]
	}
	return offsets
}

// putAddressRecord serializes the dedup address into the first
// addressRecordSize bytes of b.
func putAddressRecord(b []byte, addr chain.DedupAddress) {
	binary.NativeEndian.PutUint32(b[0:4], addr.ScriptNum)
	b[4] = byte(addr.Type)
	b[5], b[6], b[7] = 0, 0, 0
}

// addressRecord deserializes the dedup address in the first
// addressRecordSize bytes of b.
func addressRecord(b []byte) chain.DedupAddress {
	return chain.DedupAddress{
		ScriptNum: binary.NativeEndian.Uint32(b[0:4]),
		Type:      chain.DedupType(b[4]),
	}
}

// orderedAddresses returns the serialized address list, grouping the
// addresses by cluster according to the offsets.  Addresses of the same
// cluster are in ascending identifier order.
func orderedAddresses(space *addressSpace, clusterIDs, offsets []uint32) []byte {
	cursors := make([]uint32, len(offsets)-1)
	copy(cursors, offsets)

	records := make([]byte, len(clusterIDs)*addressRecordSize)
	for id, c := range clusterIDs {
		pos := int(cursors[c]) * addressRecordSize
		putAddressRecord(records[pos:], space.address(uint32(id)))
		cursors[c]++
	}
	return records
}

// writeFile writes the data produced by fill to a new file at the path.
func writeFile(path string, fill func(w *bufio.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		str := fmt.Sprintf("cannot create %s: %v", path, err)
		return makeError(ErrWriteIndex, str)
	}
	w := bufio.NewWriter(f)
	err = fill(w)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		str := fmt.Sprintf("cannot write %s: %v", path, err)
		return makeError(ErrWriteIndex, str)
	}
	return nil
}

// writeUint32s writes the values in native byte order.
func writeUint32s(w *bufio.Writer, values []uint32) error {
	var buf [4]byte
	for _, v := range values {
		binary.NativeEndian.PutUint32(buf[:], v)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// writeIndex persists the remapped forest to the directory.  The address list
// is assembled and written by its own goroutine while every per type cluster
// ID file is written by another.  The offsets are written last.
func writeIndex(dir string, space *addressSpace, clusterIDs []uint32, clusterCount uint32) error {
	if uint32(len(clusterIDs)) != space.total {
		str := fmt.Sprintf("forest has %d entries for an address space of %d "+
			"scripts", len(clusterIDs), space.total)
		return AssertError(str)
	}

	offsets := clusterOffsets(clusterIDs, clusterCount)

	var g errgroup.Group
	g.Go(func() error {
		records := orderedAddresses(space, clusterIDs, offsets)
		path := filepath.Join(dir, addressesFileName)
		return writeFile(path, func(w *bufio.Writer) error {
			_, err := w.Write(records)
			return err
		})
	})
	for d := chain.DedupType(0); d < chain.NumDedupTypes; d++ {
		start, count := space.starts[d], space.counts[d]
		ids := clusterIDs[start : start+count]
		path := filepath.Join(dir, typeIndexFileName(d))
		g.Go(func() error {
			return writeFile(path, func(w *bufio.Writer) error {
				return writeUint32s(w, ids)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	path := filepath.Join(dir, offsetsFileName)
	return writeFile(path, func(w *bufio.Writer) error {
		return writeUint32s(w, offsets)
	})
}
