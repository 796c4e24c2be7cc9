// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memchain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// readBlock reads the next block from a bootstrap stream.  It returns nil
// without an error once the stream is exhausted.
func readBlock(r io.Reader, net wire.BitcoinNet) (*wire.MsgBlock, error) {
	// The block file format is:
	//  <network> <block length> <serialized block>
	var magic uint32
	err := binary.Read(r, binary.LittleEndian, &magic)
	if err != nil {
		if err != io.EOF {
			return nil, err
		}

		// No block and no error means there are no more blocks to read.
		return nil, nil
	}
	if magic != uint32(net) {
		str := fmt.Sprintf("network mismatch -- got %x, want %x", magic,
			uint32(net))
		return nil, makeError(ErrBadBootstrap, str)
	}

	// Read the block length and ensure it is sane.
	var blockLen uint32
	if err := binary.Read(r, binary.LittleEndian, &blockLen); err != nil {
		return nil, err
	}
	if blockLen > wire.MaxBlockPayload {
		str := fmt.Sprintf("block payload of %d bytes is larger than the "+
			"max allowed %d bytes", blockLen, wire.MaxBlockPayload)
		return nil, makeError(ErrBadBootstrap, str)
	}

	serializedBlock := make([]byte, blockLen)
	if _, err := io.ReadFull(r, serializedBlock); err != nil {
		return nil, err
	}

	var msgBlock wire.MsgBlock
	if err := msgBlock.Deserialize(bytes.NewReader(serializedBlock)); err != nil {
		str := fmt.Sprintf("failed to deserialize block: %v", err)
		return nil, makeError(ErrBadBootstrap, str)
	}
	return &msgBlock, nil
}

// ReadBootstrap adds every block of a bootstrap stream for the provided
// network to the builder in order.  It returns the number of blocks added.
func ReadBootstrap(r io.Reader, net wire.BitcoinNet, b *Builder) (int, error) {
	next, err := readBlock(r, net)
	if err != nil {
		return 0, err
	}
	var added int
	for next != nil {
		if err := b.AddMsgBlock(next); err != nil {
			return added, err
		}
		added++

		next, err = readBlock(r, net)
		if err != nil {
			return added, err
		}
		blocks := b.store.blocks
		b.progress.LogBlockProgress(&blocks[len(blocks)-1], next == nil)
	}
	log.Debugf("Read %d blocks from bootstrap stream", added)
	return added, nil
}

// WriteBootstrap writes the blocks to w in the bootstrap format read by
// ReadBootstrap.
func WriteBootstrap(w io.Writer, net wire.BitcoinNet, blocks ...*wire.MsgBlock) error {
	var header [8]byte
	for _, msgBlock := range blocks {
		var buf bytes.Buffer
		if err := msgBlock.Serialize(&buf); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(header[0:4], uint32(net))
		binary.LittleEndian.PutUint32(header[4:8], uint32(buf.Len()))
		if _, err := w.Write(header[:]); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
