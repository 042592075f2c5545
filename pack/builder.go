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
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Default placement of the volume in world space.
var (
	DefaultOrigin     = mgl32.Vec3{0, 0.000001, 0}
	DefaultVoxelPitch = float32(0.001)
)

type BuildConfig struct {
	Origin     mgl32.Vec3
	VoxelPitch float32

	// MaxNodes caps the node array. Zero means the full uint32 index space.
	MaxNodes uint64

	Trim   Trimmer
	Logger *zap.Logger
}

func (cfg *BuildConfig) withDefaults() BuildConfig {
	var c BuildConfig
	if cfg != nil {
		c = *cfg
	} else {
		c.Origin = DefaultOrigin
		c.VoxelPitch = DefaultVoxelPitch
	}

	if c.VoxelPitch == 0 {
		c.VoxelPitch = DefaultVoxelPitch
	}
	if c.MaxNodes == 0 || c.MaxNodes > TotalNodes(MaxDepth) {
		c.MaxNodes = TotalNodes(MaxDepth)
	}
	if c.Trim == nil {
		c.Trim = IdentityTrim
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// sampleDepth returns d for a sample count of 8^d.
func sampleDepth(numSamples int) (int, error) {
	n := uint64(numSamples)
	if n == 0 || n&(n-1) != 0 || bits.TrailingZeros64(n)%3 != 0 {
		return 0, errors.Wrapf(ErrNotPowerOfTwoCube, "got %d samples", numSamples)
	}
	return bits.TrailingZeros64(n) / 3, nil
}

func Build(samples []Sample) ([]Node, error) {
	return BuildWithConfig(samples, nil)
}

// BuildWithConfig builds the complete node array for a row-major grid of
// samples. The result has TotalNodes(d) nodes for len(samples) == 8^d.
func BuildWithConfig(samples []Sample, cfg *BuildConfig) ([]Node, error) {
	c := cfg.withDefaults()
	log := c.Logger

	depth, err := sampleDepth(len(samples))
	if err != nil {
		return nil, err
	}

	numNodes := TotalNodes(depth)
	if depth > MaxDepth || numNodes > c.MaxNodes {
		return nil, errors.Wrapf(ErrTooLarge, "%d nodes for depth %d, limit is %d", numNodes, depth, c.MaxNodes)
	}

	log.Debug("allocating node array", zap.Int("depth", depth), zap.Uint64("nodes", numNodes))
	nodes := make([]Node, numNodes)

	if depth == 0 {
		nodes[0] = Node{Color: samples[0], FirstChild: NoChildren}
		return nodes, nil
	}

	linkLevels(nodes, depth)
	log.Debug("linked internal levels")

	fillLeaves(nodes, samples, depth)
	log.Debug("populated leaves", zap.Int("leaves", len(samples)), zap.Uint32("blocks", NumBlocks(uint32(1)<<uint(depth))))

	tmp := make([]Node, LevelSize(depth-1))
	for k := depth - 1; k > 0; k-- {
		reorderLevel(nodes, k, tmp)
	}
	log.Debug("reordered internal levels")

	aggregate(nodes, depth)
	log.Debug("aggregated mean colors")

	return nodes, nil
}

// BuildOctree builds the node array and hands it to the configured trimmer.
func BuildOctree(samples []Sample, cfg *BuildConfig) (*Octree, error) {
	c := cfg.withDefaults()

	nodes, err := BuildWithConfig(samples, &c)
	if err != nil {
		return nil, err
	}

	tree, err := NewOctree(nodes, c.Origin, c.VoxelPitch)
	if err != nil {
		return nil, err
	}

	c.Logger.Info("octree built",
		zap.Int32("side", tree.SideLength()),
		zap.Int("nodes", tree.Len()),
		zap.Float64("sizeGB", float64(tree.SizeInBytes())/1e9))

	return c.Trim(tree)
}

// linkLevels points node i of every internal level k at the eight nodes
// starting at LevelStart(k+1) + 8i.
func linkLevels(nodes []Node, depth int) {
	for k := 0; k < depth; k++ {
		start := LevelStart(k)
		next := LevelStart(k + 1)
		for i := uint64(0); i < LevelSize(k); i++ {
			nodes[start+i].FirstChild = uint32(next + i*8)
		}
	}
}

// fillLeaves copies the samples into the leaf level one 2x2x2 block at a
// time, blocks in row-major order.
func fillLeaves(nodes []Node, samples []Sample, depth int) {
	side := uint32(1) << uint(depth)
	leaves := nodes[LevelStart(depth):]

	var block uint32
	for i := 0; i < len(leaves); i += 8 {
		for j, idx := range BlockIndices(block, side) {
			leaves[i+j] = Node{Color: samples[idx], FirstChild: NoChildren}
		}
		block = NextBlockStart(block, side)
	}
}

// reorderLevel regroups level k so that every run of eight nodes is one
// 2x2x2 block of that level's grid. Before the call the nodes of level k are
// in row-major order of their cells, because the level below was grouped by
// blocks in row-major block order. Nodes keep their FirstChild when moved.
func reorderLevel(nodes []Node, k int, tmp []Node) {
	side := uint32(1) << uint(k)
	start := LevelStart(k)
	level := nodes[start : start+LevelSize(k)]
	tmp = tmp[:len(level)]

	var block uint32
	for i := 0; i < len(level); i += 8 {
		for j, idx := range BlockIndices(block, side) {
			tmp[i+j] = level[idx]
		}
		block = NextBlockStart(block, side)
	}
	copy(level, tmp)
}

// aggregate sets every internal node to the mean of its children, leaves
// first so that parents see final child colors.
func aggregate(nodes []Node, depth int) {
	for i := int64(LevelStart(depth)) - 1; i >= 0; i-- {
		first := nodes[i].FirstChild
		nodes[i].Color = meanColor(nodes[first : first+8])
	}
}
