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
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformsSize is the std140 size of the octree block:
// vec3 pos; float voxelFreq; int numVoxelsSide; float pad[3].
const UniformsSize = 32

// Uniforms are the per-frame renderer parameters that accompany the node
// buffer.
type Uniforms struct {
	Origin     mgl32.Vec3
	VoxelPitch float32
	SideLength int32
}

func (t *Octree) Uniforms() Uniforms {
	return Uniforms{
		Origin:     t.origin,
		VoxelPitch: t.voxelPitch,
		SideLength: t.SideLength(),
	}
}

// Extent is the world-space edge length of the whole volume.
func (u Uniforms) Extent() float32 {
	return u.VoxelPitch * float32(u.SideLength)
}

func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(u.Origin[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(u.Origin[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(u.Origin[2]))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(u.VoxelPitch))
	binary.LittleEndian.PutUint32(buf[16:], uint32(u.SideLength))
	return buf
}
