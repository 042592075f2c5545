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

import "image/color"

// Sample is a packed RGBA color, R in the most significant byte.
type Sample uint32

type Color struct {
	R, G, B, A uint8
}

func Pack(r, g, b, a uint8) Sample {
	return Sample(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

func (s Sample) Unpack() (r, g, b, a uint8) {
	return uint8(s >> 24), uint8(s >> 16), uint8(s >> 8), uint8(s)
}

func (s Sample) Color() Color {
	r, g, b, a := s.Unpack()
	return Color{r, g, b, a}
}

func (s Sample) RGBA() color.RGBA {
	r, g, b, a := s.Unpack()
	return color.RGBA{r, g, b, a}
}

func (s Sample) Transparent() bool {
	return uint8(s) == 0
}

func (c Color) Sample() Sample {
	return Pack(c.R, c.G, c.B, c.A)
}

// meanColor returns the per-channel truncated mean of the nodes colors.
func meanColor(nodes []Node) Sample {
	var acc [4]uint32
	for _, n := range nodes {
		r, g, b, a := n.Color.Unpack()
		acc[0] += uint32(r)
		acc[1] += uint32(g)
		acc[2] += uint32(b)
		acc[3] += uint32(a)
	}

	num := uint32(len(nodes))
	return Pack(uint8(acc[0]/num), uint8(acc[1]/num), uint8(acc[2]/num), uint8(acc[3]/num))
}
