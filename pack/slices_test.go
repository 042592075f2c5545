package pack

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func graySlices(side int) []image.Image {
	slices := make([]image.Image, side)
	for z := range slices {
		img := image.NewGray(image.Rect(0, 0, side, side))
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(x*60 + y*20 + z*4)})
			}
		}
		slices[z] = img
	}
	return slices
}

func TestIntensitiesFromImages(t *testing.T) {
	intensities, err := IntensitiesFromImages(graySlices(4), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intensities, test.ShouldHaveLength, 64)
	test.That(t, intensities[0], test.ShouldEqual, uint8(0))
	test.That(t, intensities[1], test.ShouldEqual, uint8(60))
	test.That(t, intensities[4], test.ShouldEqual, uint8(20))
	test.That(t, intensities[16], test.ShouldEqual, uint8(4))
	test.That(t, intensities[63], test.ShouldEqual, uint8(3*60+3*20+3*4))

	intensities, err = IntensitiesFromImages(graySlices(4), DefaultThreshold)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intensities[1], test.ShouldEqual, uint8(60))
	test.That(t, intensities[4], test.ShouldEqual, uint8(0))
	test.That(t, intensities[16], test.ShouldEqual, uint8(0))
}

func TestIntensitiesFromImagesInvalid(t *testing.T) {
	_, err := IntensitiesFromImages(nil, 0)
	test.That(t, errors.Is(err, ErrInvalidSlices), test.ShouldBeTrue)

	_, err = IntensitiesFromImages(graySlices(3), 0)
	test.That(t, errors.Is(err, ErrInvalidSlices), test.ShouldBeTrue)

	slices := graySlices(4)
	slices[2] = image.NewGray(image.Rect(0, 0, 4, 2))
	_, err = IntensitiesFromImages(slices, 0)
	test.That(t, errors.Is(err, ErrInvalidSlices), test.ShouldBeTrue)
}

func TestLoadSlices(t *testing.T) {
	dir := t.TempDir()
	for i, img := range graySlices(2) {
		fp, err := os.Create(filepath.Join(dir, []string{"b.png", "a.png"}[i]))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, png.Encode(fp, img), test.ShouldBeNil)
		test.That(t, fp.Close(), test.ShouldBeNil)
	}
	test.That(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644), test.ShouldBeNil)

	files, err := SliceFiles(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, files, test.ShouldResemble, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")})

	slices, err := LoadSlices(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, slices, test.ShouldHaveLength, 2)

	// a.png holds z=1
	intensities, err := IntensitiesFromImages(slices, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intensities[0], test.ShouldEqual, uint8(4))
	test.That(t, intensities[4], test.ShouldEqual, uint8(0))

	_, err = LoadSlices(filepath.Join(dir, "missing"))
	test.That(t, errors.Is(err, ErrUnreadableSource), test.ShouldBeTrue)
}
