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

package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/andreas-jonsson/volumetron/pack"
	"github.com/andreas-jonsson/volumetron/trace"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	flagIn        = "in"
	flagOut       = "out"
	flagDebug     = "debug"
	flagCompress  = "compress"
	flagOrigin    = "origin"
	flagPitch     = "pitch"
	flagGPU       = "gpu"
	flagUniforms  = "uniforms"
	flagDir       = "dir"
	flagThreshold = "threshold"
	flagSize      = "size"
	flagFOV       = "fov"
	flagDepth     = "depth"
	flagWorkers   = "workers"
)

var logger = zap.NewNop()

func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if _, err := fmt.Sscan(s, &v[0], &v[1], &v[2]); err != nil {
		return v, errors.Wrapf(err, "parse vector %q", s)
	}
	return v, nil
}

func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscan(s, &w, &h); err != nil {
		return 0, 0, errors.Wrapf(err, "parse size %q", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errors.Errorf("invalid size %dx%d", w, h)
	}
	return w, h, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, fp.Close())
	}()
	return write(fp)
}

func buildAction(c *cli.Context) error {
	origin, err := parseVec3(c.String(flagOrigin))
	if err != nil {
		return err
	}

	samples, err := pack.LoadGrid(c.String(flagIn))
	if err != nil {
		return err
	}
	logger.Debug("loaded grid", zap.String("file", c.String(flagIn)), zap.Int("samples", len(samples)))

	tree, err := pack.BuildOctree(samples, &pack.BuildConfig{
		Origin:     origin,
		VoxelPitch: float32(c.Float64(flagPitch)),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if err := pack.SaveTree(c.String(flagOut), tree, c.Bool(flagCompress)); err != nil {
		return err
	}

	if path := c.String(flagGPU); path != "" {
		err := writeFile(path, func(w io.Writer) error {
			_, err := tree.WriteTo(w)
			return err
		})
		if err != nil {
			return err
		}
	}

	if path := c.String(flagUniforms); path != "" {
		return os.WriteFile(path, tree.Uniforms().Bytes(), 0o644)
	}
	return nil
}

func infoAction(c *cli.Context) error {
	tree, err := pack.LoadTree(c.String(flagIn))
	if err != nil {
		return err
	}

	fileSize, err := pack.FileSizeByName(c.String(flagIn))
	if err != nil {
		return err
	}

	u := tree.Uniforms()
	out := c.App.Writer
	fmt.Fprintf(out, "side length:    %d\n", u.SideLength)
	fmt.Fprintf(out, "depth:          %d\n", tree.Depth())
	fmt.Fprintf(out, "nodes:          %d\n", tree.Len())
	for k := 0; k <= tree.Depth(); k++ {
		fmt.Fprintf(out, "  level %-2d      %d nodes from %d\n", k, pack.LevelSize(k), pack.LevelStart(k))
	}
	fmt.Fprintf(out, "origin:         %v %v %v\n", u.Origin[0], u.Origin[1], u.Origin[2])
	fmt.Fprintf(out, "voxel pitch:    %v\n", u.VoxelPitch)
	fmt.Fprintf(out, "root color:     %08x\n", uint32(tree.Root().Color))
	fmt.Fprintf(out, "empty subtrees: %d\n", pack.EmptySubtrees(tree))
	fmt.Fprintf(out, "size:           %.6f GB\n", float64(tree.SizeInBytes())/1e9)
	fmt.Fprintf(out, "file size:      %d bytes (%.1f%%)\n", fileSize, 100*float64(fileSize)/float64(tree.SizeInBytes()))
	return nil
}

func genAction(c *cli.Context) error {
	threshold := c.Uint(flagThreshold)
	if threshold > 255 {
		return errors.Errorf("threshold %d out of range", threshold)
	}

	slices, err := pack.LoadSlices(c.String(flagDir))
	if err != nil {
		return err
	}

	intensities, err := pack.IntensitiesFromImages(slices, uint8(threshold))
	if err != nil {
		return err
	}
	logger.Info("generated grid", zap.Int("slices", len(slices)), zap.Int("voxels", len(intensities)))

	return pack.SaveGrid(c.String(flagOut), intensities)
}

func renderAction(c *cli.Context) error {
	width, height, err := parseSize(c.String(flagSize))
	if err != nil {
		return err
	}

	tree, err := pack.LoadTree(c.String(flagIn))
	if err != nil {
		return err
	}

	cfg := trace.Config{
		FieldOfView: float32(c.Float64(flagFOV) * math.Pi / 180),
		MaxDepth:    c.Int(flagDepth),
		Workers:     c.Int(flagWorkers),
	}
	camera := trace.FrontCamera(tree.Uniforms())
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	if err := trace.Raytrace(&cfg, tree, &camera, img); err != nil {
		return err
	}

	out := c.String(flagOut)
	return writeFile(out, func(w io.Writer) error {
		if strings.ToLower(filepath.Ext(out)) == ".qoi" {
			return qoi.Encode(w, img)
		}
		return png.Encode(w, img)
	})
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "volumetron",
		Usage: "build GPU octrees from voxel grids",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Usage:   "enable debug logging",
				EnvVars: []string{"VOLUMETRON_DEBUG"},
			},
		},
		Before: func(c *cli.Context) error {
			l, err := newLogger(c.Bool(flagDebug))
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "build an octree file from a ';' separated intensity grid",
				Action: buildAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagIn, Usage: "grid `FILE`", Required: true},
					&cli.StringFlag{Name: flagOut, Value: "out.oct", Usage: "octree `FILE` to write"},
					&cli.BoolFlag{Name: flagCompress, Usage: "zstd compress the node records"},
					&cli.StringFlag{
						Name:    flagOrigin,
						Value:   "0 0.000001 0",
						Usage:   "octree position in world",
						EnvVars: []string{"VOLUMETRON_ORIGIN"},
					},
					&cli.Float64Flag{
						Name:    flagPitch,
						Value:   float64(pack.DefaultVoxelPitch),
						Usage:   "world size of one voxel",
						EnvVars: []string{"VOLUMETRON_PITCH"},
					},
					&cli.StringFlag{Name: flagGPU, Usage: "also write the raw node buffer to `FILE`"},
					&cli.StringFlag{Name: flagUniforms, Usage: "also write the std140 uniform block to `FILE`"},
				},
			},
			{
				Name:   "info",
				Usage:  "print octree file metadata",
				Action: infoAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagIn, Usage: "octree `FILE`", Required: true},
				},
			},
			{
				Name:   "gen",
				Usage:  "convert a directory of image slices into an intensity grid",
				Action: genAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagDir, Usage: "slice `DIR`", Required: true},
					&cli.StringFlag{Name: flagOut, Value: "grid.txt", Usage: "grid `FILE` to write"},
					&cli.UintFlag{
						Name:    flagThreshold,
						Value:   pack.DefaultThreshold,
						Usage:   "gray values below this become empty",
						EnvVars: []string{"VOLUMETRON_THRESHOLD"},
					},
				},
			},
			{
				Name:   "render",
				Usage:  "trace an octree file on the CPU into a PNG or QOI image",
				Action: renderAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagIn, Usage: "octree `FILE`", Required: true},
					&cli.StringFlag{Name: flagOut, Value: "out.png", Usage: "image `FILE`, .png or .qoi"},
					&cli.StringFlag{Name: flagSize, Value: "640 360", Usage: "image size"},
					&cli.Float64Flag{Name: flagFOV, Value: 45, Usage: "camera field-of-view in degrees"},
					&cli.IntFlag{Name: flagDepth, Value: -1, Usage: "max octree level to descend, -1 for leaves"},
					&cli.IntFlag{
						Name:    flagWorkers,
						Value:   runtime.NumCPU(),
						Usage:   "rendering goroutines",
						EnvVars: []string{"VOLUMETRON_WORKERS"},
					},
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
