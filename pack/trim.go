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

// Trimmer is the pruning seam applied after a build. Implementations may
// collapse uniform or fully transparent subtrees; callers must not assume
// the node count changes.
type Trimmer func(tree *Octree) (*Octree, error)

func IdentityTrim(tree *Octree) (*Octree, error) {
	return tree, nil
}

// Occupancy reports for every node whether its subtree holds at least one
// voxel with non-zero alpha. Mean alpha cannot answer this on its own since
// truncation can round a sparse subtree down to zero.
func Occupancy(tree *Octree) []bool {
	occupied := make([]bool, len(tree.nodes))
	leafStart := LevelStart(tree.depth)

	for i := uint64(len(tree.nodes)) - 1; i >= leafStart; i-- {
		occupied[i] = !tree.nodes[i].Color.Transparent()
		if i == 0 {
			return occupied
		}
	}

	for i := int64(leafStart) - 1; i >= 0; i-- {
		first := tree.nodes[i].FirstChild
		for _, o := range occupied[first : first+8] {
			if o {
				occupied[i] = true
				break
			}
		}
	}
	return occupied
}

// EmptySubtrees counts internal nodes with no occupied voxel below them.
func EmptySubtrees(tree *Octree) int {
	var (
		num      int
		occupied = Occupancy(tree)
	)

	for i := uint64(0); i < LevelStart(tree.depth); i++ {
		if !occupied[i] {
			num++
		}
	}
	return num
}
