// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/mmstanone/blocksci-compilable/chain"
)

// syntheticIndex writes an index for a known forest and returns the directory
// along with the address space and cluster IDs used.
func syntheticIndex(t *testing.T) (string, *addressSpace, []uint32) {
	t.Helper()
	space, err := newAddressSpace([chain.NumDedupTypes]uint32{2, 3, 0, 1, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	clusterIDs := []uint32{0, 1, 0, 2, 1, 3, 2, 0}
	dir := t.TempDir()
	if err := writeIndex(dir, space, clusterIDs, 4); err != nil {
		t.Fatalf("unexpected error writing index: %v", err)
	}
	return dir, space, clusterIDs
}

// TestIndexRoundTrip ensures an index read back from disk reproduces the
// member lists and cluster mapping it was written from.
func TestIndexRoundTrip(t *testing.T) {
	dir, space, clusterIDs := syntheticIndex(t)
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error opening index: %v", err)
	}
	defer m.Close()

	if got := m.ClusterCount(); got != 4 {
		t.Fatalf("unexpected cluster count -- got %d, want 4", got)
	}
	if got := m.AddressCount(); got != space.total {
		t.Fatalf("unexpected address count -- got %d, want %d", got,
			space.total)
	}

	want := make([][]chain.DedupAddress, 4)
	for id, c := range clusterIDs {
		addr := space.address(uint32(id))
		want[c] = append(want[c], addr)

		got, ok := m.ClusterOf(addr.Address())
		if !ok || got.ID != c {
			t.Fatalf("%v: unexpected cluster -- got %d (%v), want %d", addr,
				got.ID, ok, c)
		}
	}
	var total uint32
	for _, c := range m.Clusters() {
		if got := c.Addresses(); !reflect.DeepEqual(got, want[c.ID]) {
			t.Fatalf("cluster %d: unexpected members -- got %v, want %v",
				c.ID, spew.Sdump(got), spew.Sdump(want[c.ID]))
		}
		if c.Size() != uint32(len(want[c.ID])) {
			t.Fatalf("cluster %d: unexpected size %d", c.ID, c.Size())
		}
		total += c.Size()
	}
	if total != space.total {
		t.Fatalf("clusters cover %d of %d addresses", total, space.total)
	}

	if err := m.Verify(); err != nil {
		t.Fatalf("unexpected verification failure: %v", err)
	}

	// Addresses outside the index have no cluster.
	unknown := chain.Address{ScriptNum: 1, Type: chain.ScriptHash}
	if _, ok := m.ClusterOf(unknown); ok {
		t.Fatalf("unexpected cluster for %v", unknown)
	}

	// Addresses that share a dedup address share a cluster.
	pkh := chain.Address{ScriptNum: 1, Type: chain.PubKeyHash}
	wpkh := chain.Address{ScriptNum: 1, Type: chain.WitnessPubKeyHash}
	if !m.SameCluster(pkh, wpkh) {
		t.Fatalf("%v and %v are not in the same cluster", pkh, wpkh)
	}
	c, _ := m.ClusterOf(pkh)
	if !c.Contains(chain.Address{ScriptNum: 1, Type: chain.NonStandard}) {
		t.Fatalf("%v does not contain its first member", c)
	}
	if got := c.MemberSet().ToArray(); !reflect.DeepEqual(got, []uint32{0, 2, 7}) {
		t.Fatalf("unexpected member set %v", got)
	}
}

// TestTaggedClusters ensures tags are grouped by cluster.
func TestTaggedClusters(t *testing.T) {
	dir, _, _ := syntheticIndex(t)
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error opening index: %v", err)
	}
	defer m.Close()

	nonstd1 := chain.Address{ScriptNum: 1, Type: chain.NonStandard}
	wu2 := chain.Address{ScriptNum: 2, Type: chain.WitnessUnknown}
	ms := chain.Address{ScriptNum: 1, Type: chain.Multisig}
	tags := map[chain.Address]string{
		wu2:     "exchange hot wallet",
		nonstd1: "exchange cold wallet",
		ms:      "escrow",
		{ScriptNum: 9, Type: chain.PubKey}: "unknown",
	}

	got := m.TaggedClusters(tags)
	if len(got) != 2 {
		t.Fatalf("unexpected number of tagged clusters %d", len(got))
	}
	if got[0].ID != 0 || !reflect.DeepEqual(got[0].Tags, []TaggedAddress{
		{nonstd1, "exchange cold wallet"}, {wu2, "exchange hot wallet"},
	}) {
		t.Fatalf("unexpected first tagged cluster %v", spew.Sdump(got[0].Tags))
	}
	if got[1].ID != 3 || len(got[1].Tags) != 1 || got[1].Tags[0].Tag != "escrow" {
		t.Fatalf("unexpected second tagged cluster %v", spew.Sdump(got[1].Tags))
	}
}

// TestFingerprintIgnoresNumbering ensures indexes describing the same
// partition with different cluster IDs have the same fingerprint.
func TestFingerprintIgnoresNumbering(t *testing.T) {
	space, err := newAddressSpace([chain.NumDedupTypes]uint32{0, 4, 2})
	if err != nil {
		t.Fatal(err)
	}
	fingerprint := func(clusterIDs []uint32, count uint32) [32]byte {
		t.Helper()
		dir := t.TempDir()
		if err := writeIndex(dir, space, clusterIDs, count); err != nil {
			t.Fatal(err)
		}
		m, err := Open(dir)
		if err != nil {
			t.Fatal(err)
		}
		defer m.Close()
		return m.Fingerprint()
	}

	a := fingerprint([]uint32{0, 1, 0, 2, 1, 2}, 3)
	b := fingerprint([]uint32{2, 0, 2, 1, 0, 1}, 3)
	c := fingerprint([]uint32{0, 1, 0, 1, 1, 2}, 3)
	if a != b {
		t.Fatal("renumbered partition has a different fingerprint")
	}
	if a == c {
		t.Fatal("different partitions have the same fingerprint")
	}
}

// TestOpenCorrupt ensures malformed indexes are rejected.
func TestOpenCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(dir string) error
	}{{
		name: "missing offsets",
		corrupt: func(dir string) error {
			return os.Remove(filepath.Join(dir, offsetsFileName))
		},
	}, {
		name: "truncated address list",
		corrupt: func(dir string) error {
			path := filepath.Join(dir, addressesFileName)
			return os.Truncate(path, addressRecordSize*7)
		},
	}, {
		name: "partial record",
		corrupt: func(dir string) error {
			path := filepath.Join(dir, addressesFileName)
			return os.Truncate(path, addressRecordSize*8-1)
		},
	}, {
		name: "offsets short of the address count",
		corrupt: func(dir string) error {
			path := filepath.Join(dir, offsetsFileName)
			return os.Truncate(path, 4*4)
		},
	}, {
		name: "extra type entry",
		corrupt: func(dir string) error {
			path := filepath.Join(dir, typeIndexFileName(chain.DedupNullData))
			return os.WriteFile(path, make([]byte, 4), 0600)
		},
	}, {
		name: "cluster id past the cluster count",
		corrupt: func(dir string) error {
			path := filepath.Join(dir, typeIndexFileName(chain.DedupPubKey))
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			binary.NativeEndian.PutUint32(data[4:], 99)
			return os.WriteFile(path, data, 0600)
		},
	}, {
		name: "cluster id equal to the cluster count",
		corrupt: func(dir string) error {
			path := filepath.Join(dir, typeIndexFileName(chain.DedupWitnessUnknown))
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			binary.NativeEndian.PutUint32(data[4:], 4)
			return os.WriteFile(path, data, 0600)
		},
	}}

	for _, test := range tests {
		dir, _, _ := syntheticIndex(t)
		if err := test.corrupt(dir); err != nil {
			t.Fatalf("%q: unable to corrupt index: %v", test.name, err)
		}
		_, err := Open(dir)
		if !errors.Is(err, ErrCorruptIndex) {
			t.Errorf("%q: unexpected error -- got %v, want %v", test.name,
				err, ErrCorruptIndex)
		}
	}
}

// TestVerifyDetectsCorruption ensures Verify notices address lists that no
// longer match the per type mapping.
func TestVerifyDetectsCorruption(t *testing.T) {
	dir, space, _ := syntheticIndex(t)

	// Swap the first members of clusters 0 and 1.
	path := filepath.Join(dir, addressesFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	first := space.address(0)
	second := space.address(1)
	putAddressRecord(data[0:], second)
	putAddressRecord(data[3*addressRecordSize:], first)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	m, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error opening index: %v", err)
	}
	if err := m.Verify(); !errors.Is(err, ErrCorruptIndex) {
		t.Fatalf("unexpected error -- got %v, want %v", err, ErrCorruptIndex)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error closing index: %v", err)
	}
	if err := m.Close(); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("unexpected error -- got %v, want %v", err, ErrIndexClosed)
	}
	if err := m.Verify(); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("unexpected error -- got %v, want %v", err, ErrIndexClosed)
	}
}

// TestWriteIndexExisting ensures index files are never silently replaced.
func TestWriteIndexExisting(t *testing.T) {
	dir, space, clusterIDs := syntheticIndex(t)
	err := writeIndex(dir, space, clusterIDs, 4)
	if !errors.Is(err, ErrWriteIndex) {
		t.Fatalf("unexpected error -- got %v, want %v", err, ErrWriteIndex)
	}
}
