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
	"io"
	"os"

	"github.com/pkg/errors"
)

// FileSize returns the total size of seeker and leaves its offset unchanged.
func FileSize(seeker io.Seeker) (int64, error) {
	offset, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	size, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

func FileSizeByName(path string) (int64, error) {
	fp, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(ErrUnreadableSource, "open %q: %v", path, err)
	}
	defer fp.Close()
	return FileSize(fp)
}
