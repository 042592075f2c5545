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
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// DefaultThreshold clears gray values below it to empty space.
const DefaultThreshold = 50

var sliceExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IntensitiesFromImages stacks square slices along z into a row-major
// intensity grid. Each slice must be n by n with n a power of two, and there
// must be n slices.
func IntensitiesFromImages(slices []image.Image, threshold uint8) ([]uint8, error) {
	side := len(slices)
	if side == 0 || side&(side-1) != 0 {
		return nil, errors.Wrapf(ErrInvalidSlices, "%d slices is not a power of two", side)
	}

	intensities := make([]uint8, 0, side*side*side)
	for z, img := range slices {
		bounds := img.Bounds()
		if bounds.Dx() != side || bounds.Dy() != side {
			return nil, errors.Wrapf(ErrInvalidSlices, "slice %d is %dx%d, want %dx%d", z, bounds.Dx(), bounds.Dy(), side, side)
		}

		gray := imaging.Grayscale(img)
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				v := gray.NRGBAAt(x, y).R
				if v < threshold {
					v = 0
				}
				intensities = append(intensities, v)
			}
		}
	}
	return intensities, nil
}

// SliceFiles lists the image files of a directory sorted by name.
func SliceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableSource, "read %q: %v", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !sliceExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func LoadSlices(dir string) ([]image.Image, error) {
	files, err := SliceFiles(dir)
	if err != nil {
		return nil, err
	}

	slices := make([]image.Image, len(files))
	for i, f := range files {
		if slices[i], err = imaging.Open(f); err != nil {
			return nil, errors.Wrapf(ErrUnreadableSource, "slice %q: %v", f, err)
		}
	}
	return slices, nil
}
