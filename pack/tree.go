/*************************************************************************/
/* Octatron                                                              */
/* Copyright (C) 2015 Andreas T Jonsson <mail@andreasjonsson.se>         */
/*                                                                       */
/* This program is free software: you can redistribute it and/or modify  */
/* it under the terms of the GNU General Public License as published by  */
/* the Free Software Foundation, either version 3 of the License, or     */
/* (at your option) any later version.                                   */
/*                                                                       */
/* This program is distributed in the hope that it will be useful,       */
/* but WITHOUT ANY WARRANTY; without even the implied warranty of        */
/* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the         */
/* GNU General Public License for more details.                          */
/*                                                                       */
/* You should have received a copy of the GNU General Public License     */
/* along with this program.  If not, see <http://www.gnu.org/licenses/>. */
/*************************************************************************/

package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	// NoChildren is stored in the FirstChild field of leaves. Use IsLeaf to
	// test for leaves; the field is never dereferenced for them.
	NoChildren = math.MaxUint32

	// NodeSize is the size in bytes of one node record in the GPU buffer.
	NodeSize = 8

	// MaxDepth keeps every node index below NoChildren.
	MaxDepth = 10
)

type Node struct {
	Color      Sample
	FirstChild uint32
}

// Octree is a complete octree in breadth-first array form. It is immutable
// once built and safe for concurrent readers.
type Octree struct {
	nodes      []Node
	depth      int
	origin     mgl32.Vec3
	voxelPitch float32
}

// LevelSize returns the number of nodes on level k, 8^k.
func LevelSize(k int) uint64 {
	return 1 << (3 * uint(k))
}

// LevelStart returns the flat index of the first node on level k.
func LevelStart(k int) uint64 {
	return (LevelSize(k) - 1) / 7
}

// TotalNodes returns the node count of a complete octree of the given depth.
func TotalNodes(depth int) uint64 {
	return LevelStart(depth + 1)
}

func depthFromNodes(n uint64) (int, bool) {
	for d := 0; d <= MaxDepth; d++ {
		if TotalNodes(d) == n {
			return d, true
		}
	}
	return 0, false
}

func NewOctree(nodes []Node, origin mgl32.Vec3, voxelPitch float32) (*Octree, error) {
	depth, ok := depthFromNodes(uint64(len(nodes)))
	if !ok {
		return nil, errors.Wrapf(ErrInvalidFile, "%d nodes is not a complete octree", len(nodes))
	}
	if err := checkLinks(nodes, depth); err != nil {
		return nil, err
	}
	return &Octree{nodes: nodes, depth: depth, origin: origin, voxelPitch: voxelPitch}, nil
}

// checkLinks verifies that every internal node owns its own aligned run of
// eight nodes on the next level and that leaves hold NoChildren.
func checkLinks(nodes []Node, depth int) error {
	for k := 0; k < depth; k++ {
		start, next := LevelStart(k), LevelStart(k+1)
		owned := make([]bool, LevelSize(k))

		for i := start; i < next; i++ {
			first := uint64(nodes[i].FirstChild)
			if first < next || first >= LevelStart(k+2) || (first-next)%8 != 0 {
				return errors.Wrapf(ErrInvalidFile, "node %d links to %d, not a block on level %d", i, first, k+1)
			}

			block := (first - next) / 8
			if owned[block] {
				return errors.Wrapf(ErrInvalidFile, "node %d links to children %d owned by another node", i, first)
			}
			owned[block] = true
		}
	}

	for i := LevelStart(depth); i < uint64(len(nodes)); i++ {
		if nodes[i].FirstChild != NoChildren {
			return errors.Wrapf(ErrInvalidFile, "leaf %d links to %d", i, nodes[i].FirstChild)
		}
	}
	return nil
}

func (t *Octree) Len() int {
	return len(t.nodes)
}

func (t *Octree) Depth() int {
	return t.depth
}

// SideLength is the number of voxels per axis, 2^depth.
func (t *Octree) SideLength() int32 {
	return 1 << uint(t.depth)
}

func (t *Octree) Origin() mgl32.Vec3 {
	return t.origin
}

func (t *Octree) VoxelPitch() float32 {
	return t.voxelPitch
}

func (t *Octree) Root() Node {
	return t.nodes[0]
}

func (t *Octree) Node(i uint32) Node {
	return t.nodes[i]
}

// Nodes returns a copy of the node array.
func (t *Octree) Nodes() []Node {
	nodes := make([]Node, len(t.nodes))
	copy(nodes, t.nodes)
	return nodes
}

func (t *Octree) IsLeaf(i uint32) bool {
	return uint64(i) >= LevelStart(t.depth)
}

func (t *Octree) Level(i uint32) int {
	k := 0
	for uint64(i) >= LevelStart(k+1) {
		k++
	}
	return k
}

// Children returns the index of the first of the eight children of node i.
func (t *Octree) Children(i uint32) (uint32, bool) {
	if t.IsLeaf(i) {
		return 0, false
	}
	return t.nodes[i].FirstChild, true
}

// Position returns the level of node i and its cell coordinates in that
// level's grid of 2^level cells per axis. Every level below the root is laid
// out as 2x2x2 blocks in row-major block order, so slot 8b+j holds octant j
// of block b.
func (t *Octree) Position(i uint32) (level int, x, y, z uint32) {
	level = t.Level(i)
	if level == 0 {
		return 0, 0, 0, 0
	}

	rel := uint32(uint64(i) - LevelStart(level))
	block, octant := rel/8, rel%8
	half := uint32(1) << uint(level-1)

	x = 2*(block%half) + octant&1
	y = 2*((block/half)%half) + (octant>>1)&1
	z = 2*(block/(half*half)) + octant>>2
	return level, x, y, z
}

func (t *Octree) SizeInBytes() int64 {
	return int64(len(t.nodes)) * NodeSize
}

// Bytes returns the node array as little-endian {color, firstChild} records,
// ready for upload to a storage buffer.
func (t *Octree) Bytes() []byte {
	buf := make([]byte, t.SizeInBytes())
	putNodes(buf, t.nodes)
	return buf
}

func putNodes(buf []byte, nodes []Node) {
	for i, n := range nodes {
		binary.LittleEndian.PutUint32(buf[i*NodeSize:], uint32(n.Color))
		binary.LittleEndian.PutUint32(buf[i*NodeSize+4:], n.FirstChild)
	}
}

const writeChunk = 4096

func (t *Octree) WriteTo(writer io.Writer) (int64, error) {
	var (
		written int64
		buf     = make([]byte, writeChunk*NodeSize)
	)

	for start := 0; start < len(t.nodes); start += writeChunk {
		end := start + writeChunk
		if end > len(t.nodes) {
			end = len(t.nodes)
		}

		chunk := buf[:(end-start)*NodeSize]
		putNodes(chunk, t.nodes[start:end])

		n, err := writer.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (t *Octree) Equal(other *Octree) bool {
	if other == nil {
		return false
	}
	return t.depth == other.depth &&
		t.origin == other.origin &&
		t.voxelPitch == other.voxelPitch &&
		bytes.Equal(t.Bytes(), other.Bytes())
}
