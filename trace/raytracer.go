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

package trace

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/andreas-jonsson/volumetron/pack"
	"github.com/ungerik/go3d/vec3"
	"golang.org/x/sync/errgroup"
)

type (
	Camera struct {
		Position,
		LookAt,
		Up [3]float32
	}

	Config struct {
		// FieldOfView in radians.
		FieldOfView float32

		// MaxDepth stops descent at that level and uses the mean color of the
		// node. Negative means down to the leaves.
		MaxDepth int

		Workers    int
		ClearColor color.RGBA
	}
)

var errFieldOfView = errors.New("field-of-view must be in (0, pi)")

type infiniteRay [2]vec3.T

type tracer struct {
	tree       *pack.Octree
	occupied   []bool
	maxDepth   int
	clearColor color.RGBA
}

var childPositions = []vec3.T{
	vec3.T{0, 0, 0}, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{1, 1, 0},
	vec3.T{0, 0, 1}, vec3.T{1, 0, 1}, vec3.T{0, 1, 1}, vec3.T{1, 1, 1},
}

// FrontCamera looks at the center of the volume from the -z side, two
// volume extents away.
func FrontCamera(u pack.Uniforms) Camera {
	half := u.Extent() * 0.5
	center := [3]float32{u.Origin[0] + half, u.Origin[1] + half, u.Origin[2] + half}
	return Camera{
		Position: [3]float32{center[0], center[1], center[2] - 4*half},
		LookAt:   center,
		Up:       [3]float32{0, 1, 0},
	}
}

// intersectBox is a slab test returning the entry distance along the ray, or
// length when the box is missed or lies beyond it. An axis the ray runs
// parallel to is skipped if the origin is inside that slab and misses
// otherwise.
func intersectBox(ray *infiniteRay, length float32, box *vec3.Box) float32 {
	origin := ray[0]
	direction := ray[1]

	var (
		start float32
		final float32 = math.MaxFloat32
	)

	for a := 0; a < 3; a++ {
		if direction[a] == 0 {
			if origin[a] < box.Min[a] || origin[a] > box.Max[a] {
				return length
			}
			continue
		}

		inv := 1 / direction[a]
		near := (box.Min[a] - origin[a]) * inv
		far := (box.Max[a] - origin[a]) * inv
		if near > far {
			near, far = far, near
		}

		if near > start {
			start = near
		}
		if far < final {
			final = far
		}
		if start > final {
			return length
		}
	}

	if start < length {
		return start
	}
	return length
}

func (t *tracer) intersectTree(ray *infiniteRay, nodePos vec3.T, nodeScale, length float32, nodeIndex uint32) (float32, color.RGBA) {
	col := t.clearColor
	if !t.occupied[nodeIndex] {
		return length, col
	}

	box := vec3.Box{Min: nodePos, Max: vec3.T{nodePos[0] + nodeScale, nodePos[1] + nodeScale, nodePos[2] + nodeScale}}
	boxDist := intersectBox(ray, length, &box)
	if boxDist == length {
		return length, col
	}

	first, hasChildren := t.tree.Children(nodeIndex)
	if !hasChildren || (t.maxDepth >= 0 && t.tree.Level(nodeIndex) >= t.maxDepth) {
		return boxDist, t.tree.Node(nodeIndex).Color.RGBA()
	}

	childScale := nodeScale * 0.5
	for i := range childPositions {
		scaled := childPositions[i].Scaled(childScale)
		pos := vec3.Add(&nodePos, &scaled)

		if ln, c := t.intersectTree(ray, pos, childScale, length, first+uint32(i)); ln < length {
			length = ln
			col = c
		}
	}
	return length, col
}

func calcIncVectors(lookAtPoint, eyePoint, up vec3.T, width, height, fieldOfView float32) (vec3.T, vec3.T, vec3.T) {
	viewDirection := vec3.Sub(&lookAtPoint, &eyePoint)
	u := vec3.Cross(&viewDirection, &up)
	v := vec3.Cross(&u, &viewDirection)
	u.Normalize()
	v.Normalize()

	// The view plane passes through the look-at point, so its size scales
	// with the eye distance.
	viewPlaneHalfWidth := float32(math.Tan(float64(fieldOfView/2))) * viewDirection.Length()
	aspectRatio := height / width
	viewPlaneHalfHeight := aspectRatio * viewPlaneHalfWidth

	sV := v.Scaled(viewPlaneHalfHeight)
	sU := u.Scaled(viewPlaneHalfWidth)

	lookV := vec3.Sub(&lookAtPoint, &sV)
	viewPlaneBottomLeftPoint := vec3.Sub(&lookV, &sU)

	xIncVector := u.Scaled(2 * viewPlaneHalfWidth / width)
	yIncVector := v.Scaled(2 * viewPlaneHalfHeight / height)

	return xIncVector, yIncVector, viewPlaneBottomLeftPoint
}

// Raytrace renders the octree into img, one primary ray per pixel. Rows are
// split over cfg.Workers goroutines; the tree is only read.
func Raytrace(cfg *Config, tree *pack.Octree, camera *Camera, img *image.RGBA) error {
	if cfg.FieldOfView <= 0 || cfg.FieldOfView >= math.Pi {
		return errFieldOfView
	}

	t := &tracer{
		tree:       tree,
		occupied:   pack.Occupancy(tree),
		maxDepth:   cfg.MaxDepth,
		clearColor: cfg.ClearColor,
	}

	u := tree.Uniforms()
	nodePos := vec3.T(u.Origin)
	nodeScale := u.Extent()
	eyePoint := vec3.T(camera.Position)

	rect := img.Rect
	width := float32(rect.Dx())
	height := float32(rect.Dy())

	xInc, yInc, bottomLeft := calcIncVectors(camera.LookAt, eyePoint, camera.Up, width, height, cfg.FieldOfView)

	traceRow := func(h int) {
		y := yInc.Scaled(float32(h))
		for w := 0; w < rect.Dx(); w++ {
			x := xInc.Scaled(float32(w))
			x = vec3.Add(&x, &y)
			viewPlanePoint := vec3.Add(&bottomLeft, &x)

			dir := vec3.Sub(&viewPlanePoint, &eyePoint)
			dir.Normalize()

			ray := infiniteRay{eyePoint, dir}
			_, col := t.intersectTree(&ray, nodePos, nodeScale, math.MaxFloat32, 0)
			img.SetRGBA(rect.Min.X+w, rect.Max.Y-1-h, col)
		}
	}

	var g errgroup.Group
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	} else {
		g.SetLimit(1)
	}

	for h := 0; h < rect.Dy(); h++ {
		h := h
		g.Go(func() error {
			traceRow(h)
			return nil
		})
	}
	return g.Wait()
}
