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
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	binaryVersion  = 1
	compressedFlag = 0x1
)

var fileSign = [4]byte{0x1b, 0x6f, 0x63, 0x74}

type OctreeHeader struct {
	Sign       [4]byte
	Version    uint8
	Flags      uint8
	Unused     uint16
	NumNodes   uint64
	SideLength uint32
	Origin     [3]float32
	VoxelPitch float32
}

func (h *OctreeHeader) Compressed() bool {
	return h.Flags&compressedFlag != 0
}

func (h *OctreeHeader) Size() int {
	return binary.Size(h)
}

func newHeader(tree *Octree, compress bool) *OctreeHeader {
	header := &OctreeHeader{
		Sign:       fileSign,
		Version:    binaryVersion,
		NumNodes:   uint64(tree.Len()),
		SideLength: uint32(tree.SideLength()),
		Origin:     tree.origin,
		VoxelPitch: tree.voxelPitch,
	}
	if compress {
		header.Flags |= compressedFlag
	}
	return header
}

func DecodeHeader(reader io.Reader, header *OctreeHeader) error {
	if err := binary.Read(reader, binary.LittleEndian, header); err != nil {
		return errors.Wrapf(ErrInvalidFile, "header: %v", err)
	}

	if header.Sign != fileSign {
		return errors.Wrapf(ErrInvalidFile, "bad signature % x", header.Sign[:])
	}
	if header.Version != binaryVersion {
		return errors.Wrapf(ErrInvalidFile, "unsupported version %d", header.Version)
	}
	return nil
}

// EncodeTree writes the header followed by the node records, zstd
// compressed when asked to.
func EncodeTree(writer io.Writer, tree *Octree, compress bool) error {
	if err := binary.Write(writer, binary.LittleEndian, newHeader(tree, compress)); err != nil {
		return err
	}

	if !compress {
		_, err := tree.WriteTo(writer)
		return err
	}

	enc, err := zstd.NewWriter(writer,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return err
	}

	if _, err := tree.WriteTo(enc); err != nil {
		return multierr.Combine(err, enc.Close())
	}
	return enc.Close()
}

func DecodeTree(reader io.Reader) (*Octree, error) {
	var header OctreeHeader
	if err := DecodeHeader(reader, &header); err != nil {
		return nil, err
	}

	depth, ok := depthFromNodes(header.NumNodes)
	if !ok || uint32(1)<<uint(depth) != header.SideLength {
		return nil, errors.Wrapf(ErrInvalidFile, "%d nodes do not match side length %d", header.NumNodes, header.SideLength)
	}

	body := reader
	if header.Compressed() {
		dec, err := zstd.NewReader(reader, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFile, "zstd: %v", err)
		}
		defer dec.Close()
		body = dec
	}

	nodes, err := readNodes(body, header.NumNodes)
	if err != nil {
		return nil, err
	}

	tree, err := NewOctree(nodes, mgl32.Vec3(header.Origin), header.VoxelPitch)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// readNodes grows the node array as records arrive, so a header claiming more
// nodes than the body holds fails without allocating for the claim.
func readNodes(reader io.Reader, numNodes uint64) ([]Node, error) {
	var (
		nodes = make([]Node, 0, min(numNodes, writeChunk))
		buf   = make([]byte, writeChunk*NodeSize)
	)

	for uint64(len(nodes)) < numNodes {
		count := min(numNodes-uint64(len(nodes)), writeChunk)
		chunk := buf[:count*NodeSize]
		if _, err := io.ReadFull(reader, chunk); err != nil {
			return nil, errors.Wrapf(ErrInvalidFile, "node %d: %v", len(nodes), err)
		}

		for off := 0; off < len(chunk); off += NodeSize {
			nodes = append(nodes, Node{
				Color:      Sample(binary.LittleEndian.Uint32(chunk[off:])),
				FirstChild: binary.LittleEndian.Uint32(chunk[off+4:]),
			})
		}
	}
	return nodes, nil
}

func SaveTree(path string, tree *Octree, compress bool) (err error) {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, fp.Close())
	}()

	w := bufio.NewWriter(fp)
	if err := EncodeTree(w, tree, compress); err != nil {
		return err
	}
	return w.Flush()
}

func LoadTree(path string) (*Octree, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableSource, "open %q: %v", path, err)
	}
	defer fp.Close()
	return DecodeTree(bufio.NewReader(fp))
}
