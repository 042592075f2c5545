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

// BlockIndices returns the row-major indices of the 2x2x2 block whose minimum
// corner is start, in a grid with n cells per axis. The order is x fastest,
// then y, then z.
func BlockIndices(start, n uint32) [8]uint32 {
	nn := n * n
	return [8]uint32{
		start,
		start + 1,
		start + n,
		start + n + 1,
		start + nn,
		start + nn + 1,
		start + nn + n,
		start + nn + n + 1,
	}
}

// NextBlockStart returns the minimum corner of the block following the one
// at current, in row-major block order.
func NextBlockStart(current, n uint32) uint32 {
	next := current + 2
	if next%n == 0 {
		next += n
		if (next/n)%n == 0 {
			next += n * n
		}
	}
	return next
}

// NumBlocks is the number of aligned 2x2x2 blocks in a grid of side n.
func NumBlocks(n uint32) uint32 {
	return n * n * n / 8
}
