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

import "github.com/pkg/errors"

var (
	ErrUnreadableSource  = errors.New("unreadable source")
	ErrInvalidToken      = errors.New("invalid intensity token")
	ErrNotPowerOfTwoCube = errors.New("sample count must be a power-of-two cube")
	ErrTooLarge          = errors.New("octree too large to allocate")
	ErrInvalidFile       = errors.New("invalid file")
	ErrInvalidSlices     = errors.New("invalid image slices")
)
