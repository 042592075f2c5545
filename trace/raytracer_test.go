package trace

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ungerik/go3d/vec3"
	"go.viam.com/test"

	"github.com/andreas-jonsson/volumetron/pack"
)

func testTree(t *testing.T, samples []pack.Sample) *pack.Octree {
	t.Helper()
	return testTreePitch(t, samples, 1)
}

func uniformSamples(n int, s pack.Sample) []pack.Sample {
	samples := make([]pack.Sample, n)
	for i := range samples {
		samples[i] = s
	}
	return samples
}

func testTreePitch(t *testing.T, samples []pack.Sample, pitch float32) *pack.Octree {
	t.Helper()
	tree, err := pack.BuildOctree(samples, &pack.BuildConfig{VoxelPitch: pitch})
	test.That(t, err, test.ShouldBeNil)
	return tree
}

func render(t *testing.T, cfg *Config, tree *pack.Octree) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	cam := FrontCamera(tree.Uniforms())
	test.That(t, Raytrace(cfg, tree, &cam, img), test.ShouldBeNil)
	return img
}

func TestFrontCamera(t *testing.T) {
	cam := FrontCamera(pack.Uniforms{Origin: mgl32.Vec3{1, 1, 1}, VoxelPitch: 0.5, SideLength: 4})
	test.That(t, cam.LookAt, test.ShouldResemble, [3]float32{2, 2, 2})
	test.That(t, cam.Position, test.ShouldResemble, [3]float32{2, 2, -2})
	test.That(t, cam.Up, test.ShouldResemble, [3]float32{0, 1, 0})
}

func TestIntersectBox(t *testing.T) {
	box := vec3.Box{Min: vec3.T{0, 0, 0}, Max: vec3.T{1, 1, 1}}
	const far = float32(100)

	for _, tc := range []struct {
		name      string
		origin    vec3.T
		direction vec3.T
		want      float32
	}{
		{"axis aligned", vec3.T{0.5, 0.5, -2}, vec3.T{0, 0, 1}, 2},
		{"origin on min plane", vec3.T{0, 0.5, -2}, vec3.T{0, 0, 1}, 2},
		{"origin on max plane", vec3.T{1, 1, -2}, vec3.T{0, 0, 1}, 2},
		{"outside parallel slab", vec3.T{1.5, 0.5, -2}, vec3.T{0, 0, 1}, far},
		{"pointing away", vec3.T{0.5, 0.5, -2}, vec3.T{0, 0, -1}, far},
		{"inside", vec3.T{0.5, 0.5, 0.5}, vec3.T{1, 0, 0}, 0},
		{"diagonal", vec3.T{-1, -1, 0.5}, vec3.T{0.6, 0.8, 0}, 5.0 / 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ray := infiniteRay{tc.origin, tc.direction}
			test.That(t, intersectBox(&ray, far, &box), test.ShouldAlmostEqual, tc.want, 1e-6)
		})
	}

	ray := infiniteRay{vec3.T{0.5, 0.5, -2}, vec3.T{0, 0, 1}}
	test.That(t, intersectBox(&ray, 1, &box), test.ShouldEqual, float32(1))
}

func hits(img *image.RGBA, bg color.RGBA) int {
	var n int
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			if img.RGBAAt(x, y) != bg {
				n++
			}
		}
	}
	return n
}

func TestRaytraceOpaque(t *testing.T) {
	solid := pack.IntensitySample(200)
	tree := testTree(t, uniformSamples(64, solid))

	img := render(t, &Config{FieldOfView: math.Pi / 4, MaxDepth: -1, Workers: 2}, tree)

	// The eye is on the center axis, so the middle column and row have
	// direction components of zero.
	for y := 0; y < 12; y++ {
		test.That(t, img.RGBAAt(8, y), test.ShouldResemble, solid.RGBA())
		test.That(t, img.RGBAAt(0, y), test.ShouldResemble, color.RGBA{})
		test.That(t, img.RGBAAt(15, y), test.ShouldResemble, color.RGBA{})
	}
	for x := 2; x < 15; x++ {
		test.That(t, img.RGBAAt(x, 6), test.ShouldResemble, solid.RGBA())
	}

	// the front face spans columns 2 to 14 and every row
	test.That(t, hits(img, color.RGBA{}), test.ShouldEqual, 13*12)
}

func TestRaytracePitchInvariant(t *testing.T) {
	solid := pack.IntensitySample(200)
	cfg := &Config{FieldOfView: math.Pi / 4, MaxDepth: -1}

	unit := render(t, cfg, testTreePitch(t, uniformSamples(64, solid), 1))
	for _, pitch := range []float32{pack.DefaultVoxelPitch, 0.25, 40} {
		img := render(t, cfg, testTreePitch(t, uniformSamples(64, solid), pitch))
		test.That(t, img.Pix, test.ShouldResemble, unit.Pix)
	}
}

func TestRaytraceEmpty(t *testing.T) {
	bg := color.RGBA{1, 2, 3, 255}
	tree := testTree(t, make([]pack.Sample, 64))

	img := render(t, &Config{FieldOfView: math.Pi / 4, MaxDepth: -1, ClearColor: bg}, tree)
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			test.That(t, img.RGBAAt(x, y), test.ShouldResemble, bg)
		}
	}
}

func TestRaytraceMaxDepth(t *testing.T) {
	samples := make([]pack.Sample, 64)
	for i := range samples {
		samples[i] = pack.Pack(uint8(i*4), uint8(255-i), 17, 255)
	}
	tree := testTree(t, samples)

	img := render(t, &Config{FieldOfView: math.Pi / 4, MaxDepth: 0}, tree)
	test.That(t, img.RGBAAt(8, 6), test.ShouldResemble, tree.Root().Color.RGBA())
	test.That(t, img.RGBAAt(4, 2), test.ShouldResemble, tree.Root().Color.RGBA())
	test.That(t, img.RGBAAt(0, 0), test.ShouldResemble, color.RGBA{})
}

func TestRaytraceWorkers(t *testing.T) {
	samples := make([]pack.Sample, 8*8*8)
	for i := range samples {
		if i%3 != 0 {
			samples[i] = pack.Pack(uint8(i), uint8(i>>1), uint8(i>>2), 255)
		}
	}
	tree := testTree(t, samples)

	single := render(t, &Config{FieldOfView: math.Pi / 3, MaxDepth: -1, Workers: 1}, tree)
	many := render(t, &Config{FieldOfView: math.Pi / 3, MaxDepth: -1, Workers: 8}, tree)
	test.That(t, many.Pix, test.ShouldResemble, single.Pix)
}

func TestRaytraceFieldOfView(t *testing.T) {
	tree := testTree(t, make([]pack.Sample, 8))
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	cam := FrontCamera(tree.Uniforms())

	for _, fov := range []float32{0, -1, math.Pi, 4} {
		test.That(t, Raytrace(&Config{FieldOfView: fov}, tree, &cam, img), test.ShouldEqual, errFieldOfView)
	}
}
