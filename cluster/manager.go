// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mmstanone/blocksci-compilable/chain"
	"lukechampine.com/blake3"
)

// Manager provides read-only access to a persisted cluster index.  It is safe
// for concurrent use.  The clusters it returns must not be used after Close.
type Manager struct {
	dir          string
	space        *addressSpace
	clusterCount uint32
	offsets      *indexFile
	addresses    *indexFile
	types        [chain.NumDedupTypes]*indexFile

	closeMtx sync.Mutex
	closed   bool
}

// Open opens the cluster index in the directory.  The sizes of the files are
// validated against each other, the offsets must be proper prefix sums
// covering every address and every address must map to one of the clusters.
func Open(dir string) (*Manager, error) {
	m := &Manager{dir: dir}
	var files []*indexFile
	fail := func(err error) (*Manager, error) {
		for _, f := range files {
			f.close()
		}
		return nil, err
	}

	var counts [chain.NumDedupTypes]uint32
	for d := chain.DedupType(0); d < chain.NumDedupTypes; d++ {
		f, err := openIndexFile(filepath.Join(dir, typeIndexFileName(d)), 4)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		m.types[d] = f
		counts[d] = f.uint32Len()
	}
	var err error
	m.offsets, err = openIndexFile(filepath.Join(dir, offsetsFileName), 4)
	if err != nil {
		return fail(err)
	}
	files = append(files, m.offsets)
	m.addresses, err = openIndexFile(filepath.Join(dir, addressesFileName),
		addressRecordSize)
	if err != nil {
		return fail(err)
	}
	files = append(files, m.addresses)

	m.space, err = newAddressSpace(counts)
	if err != nil {
		return fail(makeError(ErrCorruptIndex, err.Error()))
	}
	if err := m.checkOffsets(); err != nil {
		return fail(err)
	}
	if err := m.checkClusterIDs(); err != nil {
		return fail(err)
	}

	log.Debugf("Opened cluster index %s with %d clusters over %d addresses",
		dir, m.clusterCount, m.space.total)
	return m, nil
}

// checkOffsets validates the offsets file and sets the cluster count.
func (m *Manager) checkOffsets() error {
	n := m.offsets.uint32Len()
	if n == 0 {
		str := fmt.Sprintf("%s is empty", m.offsets.path)
		return makeError(ErrCorruptIndex, str)
	}
	if first := m.offsets.uint32At(0); first != 0 {
		str := fmt.Sprintf("%s starts at %d instead of 0", m.offsets.path,
			first)
		return makeError(ErrCorruptIndex, str)
	}
	for i := uint32(1); i < n; i++ {
		if m.offsets.uint32At(i) < m.offsets.uint32At(i-1) {
			str := fmt.Sprintf("%s decreases at cluster %d", m.offsets.path,
				i-1)
			return makeError(ErrCorruptIndex, str)
		}
	}
	if last := m.offsets.uint32At(n - 1); last != m.space.total {
		str := fmt.Sprintf("%s covers %d addresses but the index has %d",
			m.offsets.path, last, m.space.total)
		return makeError(ErrCorruptIndex, str)
	}
	if records := uint32(len(m.addresses.data) / addressRecordSize); records != m.space.total {
		str := fmt.Sprintf("%s holds %d addresses but the index has %d",
			m.addresses.path, records, m.space.total)
		return makeError(ErrCorruptIndex, str)
	}
	m.clusterCount = n - 1
	return nil
}

// checkClusterIDs ensures every entry of the per-type files names a cluster
// of the offsets file.  It must be called after checkOffsets.
func (m *Manager) checkClusterIDs() error {
	for _, f := range m.types {
		n := f.uint32Len()
		for i := uint32(0); i < n; i++ {
			if id := f.uint32At(i); id >= m.clusterCount {
				str := fmt.Sprintf("%s assigns script %d to cluster %d "+
					"but the index has %d clusters", f.path, i+1, id,
					m.clusterCount)
				return makeError(ErrCorruptIndex, str)
			}
		}
	}
	return nil
}

// Dir returns the directory of the index.
func (m *Manager) Dir() string {
	return m.dir
}

// ClusterCount returns the number of clusters.
func (m *Manager) ClusterCount() uint32 {
	return m.clusterCount
}

// AddressCount returns the number of addresses covered by the index.
func (m *Manager) AddressCount() uint32 {
	return m.space.total
}

// clusterID returns the ID of the cluster containing the dedup address.
func (m *Manager) clusterID(addr chain.DedupAddress) (uint32, bool) {
	if !m.space.contains(addr) {
		return 0, false
	}
	return m.types[addr.Type].uint32At(addr.ScriptNum - 1), true
}

// ClusterOf returns the cluster containing the address.  False is returned
// when the address is not covered by the index.
func (m *Manager) ClusterOf(addr chain.Address) (Cluster, bool) {
	if !addr.IsValid() {
		return Cluster{}, false
	}
	id, ok := m.clusterID(addr.Dedup())
	if !ok {
		return Cluster{}, false
	}
	return Cluster{ID: id, m: m}, true
}

// Cluster returns the cluster with the provided ID.  It panics when the ID is
// not below ClusterCount.
func (m *Manager) Cluster(id uint32) Cluster {
	if id >= m.clusterCount {
		panic(AssertError(fmt.Sprintf("cluster %d out of range for index "+
			"with %d clusters", id, m.clusterCount)))
	}
	return Cluster{ID: id, m: m}
}

// Clusters returns every cluster in ascending ID order.
func (m *Manager) Clusters() []Cluster {
	clusters := make([]Cluster, m.clusterCount)
	for i := range clusters {
		clusters[i] = Cluster{ID: uint32(i), m: m}
	}
	return clusters
}

// SameCluster returns whether both addresses are covered by the index and
// belong to the same cluster.
func (m *Manager) SameCluster(a, b chain.Address) bool {
	ca, ok := m.ClusterOf(a)
	if !ok {
		return false
	}
	cb, ok := m.ClusterOf(b)
	return ok && ca.ID == cb.ID
}

// TaggedAddress is an address along with a caller supplied label.
type TaggedAddress struct {
	Address chain.Address
	Tag     string
}

// TaggedCluster is a cluster along with the tagged addresses it contains.
type TaggedCluster struct {
	Cluster
	Tags []TaggedAddress
}

// TaggedClusters returns every cluster containing at least one of the tagged
// addresses, in ascending ID order, along with those addresses.  The tags of
// a cluster are ordered by address.  Addresses not covered by the index are
// ignored.
func (m *Manager) TaggedClusters(tags map[chain.Address]string) []TaggedCluster {
	byCluster := make(map[uint32][]TaggedAddress)
	for addr, tag := range tags {
		c, ok := m.ClusterOf(addr)
		if !ok {
			continue
		}
		byCluster[c.ID] = append(byCluster[c.ID], TaggedAddress{addr, tag})
	}

	tagged := make([]TaggedCluster, 0, len(byCluster))
	for id, addrs := range byCluster {
		sort.Slice(addrs, func(i, j int) bool {
			if addrs[i].Address.Type != addrs[j].Address.Type {
				return addrs[i].Address.Type < addrs[j].Address.Type
			}
			return addrs[i].Address.ScriptNum < addrs[j].Address.ScriptNum
		})
		tagged = append(tagged, TaggedCluster{
			Cluster: Cluster{ID: id, m: m},
			Tags:    addrs,
		})
	}
	sort.Slice(tagged, func(i, j int) bool {
		return tagged[i].ID < tagged[j].ID
	})
	return tagged
}

// member returns the address at the provided position of the address list.
func (m *Manager) member(pos uint32) chain.DedupAddress {
	off := int(pos) * addressRecordSize
	return addressRecord(m.addresses.data[off : off+addressRecordSize])
}

// Verify performs a full consistency check of the index.  Every address must
// appear exactly once, in the cluster its type file maps it to, and the
// members of every cluster must be in ascending identifier order.
func (m *Manager) Verify() error {
	m.closeMtx.Lock()
	defer m.closeMtx.Unlock()
	if m.closed {
		return makeError(ErrIndexClosed, "index is closed")
	}

	seen := roaring.New()
	for c := uint32(0); c < m.clusterCount; c++ {
		start, end := m.offsets.uint32At(c), m.offsets.uint32At(c+1)
		if start == end {
			str := fmt.Sprintf("cluster %d is empty", c)
			return makeError(ErrCorruptIndex, str)
		}
		var prev uint32
		for pos := start; pos < end; pos++ {
			addr := m.member(pos)
			if !m.space.contains(addr) {
				str := fmt.Sprintf("cluster %d holds unknown address %v",
					c, addr)
				return makeError(ErrCorruptIndex, str)
			}
			id := m.space.globalID(addr)
			if pos > start && id <= prev {
				str := fmt.Sprintf("members of cluster %d are out of "+
					"order at %v", c, addr)
				return makeError(ErrCorruptIndex, str)
			}
			prev = id
			if !seen.CheckedAdd(id) {
				str := fmt.Sprintf("address %v appears in more than one "+
					"cluster", addr)
				return makeError(ErrCorruptIndex, str)
			}
			if mapped, _ := m.clusterID(addr); mapped != c {
				str := fmt.Sprintf("address %v is listed in cluster %d "+
					"but mapped to cluster %d", addr, c, mapped)
				return makeError(ErrCorruptIndex, str)
			}
		}
	}
	if seen.GetCardinality() != uint64(m.space.total) {
		str := fmt.Sprintf("clusters cover %d of %d addresses",
			seen.GetCardinality(), m.space.total)
		return makeError(ErrCorruptIndex, str)
	}
	return nil
}

// Fingerprint returns a digest of the partition described by the index.  It
// only depends on which addresses are grouped together, so two clusterings
// of the same chain with the same heuristics have the same fingerprint even
// when their numeric cluster IDs differ.
//
// The digest covers, for every address in ascending identifier order, the
// identifier of the smallest member of its cluster.
func (m *Manager) Fingerprint() [32]byte {
	h := blake3.New(32, nil)
	var buf [4]byte
	for d := chain.DedupType(0); d < chain.NumDedupTypes; d++ {
		ids := m.types[d]
		for i := uint32(0); i < ids.uint32Len(); i++ {
			first := m.member(m.offsets.uint32At(ids.uint32At(i)))
			binary.LittleEndian.PutUint32(buf[:], m.space.globalID(first))
			h.Write(buf[:])
		}
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Close releases the index files.
func (m *Manager) Close() error {
	m.closeMtx.Lock()
	defer m.closeMtx.Unlock()
	if m.closed {
		return makeError(ErrIndexClosed, "index is already closed")
	}
	m.closed = true

	var err error
	files := append(m.types[:], m.offsets, m.addresses)
	for _, f := range files {
		if closeErr := f.close(); err == nil {
			err = closeErr
		}
	}
	return err
}
