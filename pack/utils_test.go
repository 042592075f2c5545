package pack

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestFileSize(t *testing.T) {
	r := bytes.NewReader(make([]byte, 100))
	_, err := r.Seek(42, io.SeekStart)
	test.That(t, err, test.ShouldBeNil)

	size, err := FileSize(r)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, size, test.ShouldEqual, int64(100))

	offset, err := r.Seek(0, io.SeekCurrent)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, offset, test.ShouldEqual, int64(42))
}

func TestFileSizeByName(t *testing.T) {
	tree := buildTree(t, gradientSamples(4))
	path := filepath.Join(t.TempDir(), "volume.oct")
	test.That(t, SaveTree(path, tree, false), test.ShouldBeNil)

	size, err := FileSizeByName(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, size, test.ShouldEqual, int64((&OctreeHeader{}).Size())+tree.SizeInBytes())

	_, err = FileSizeByName(filepath.Join(t.TempDir(), "missing"))
	test.That(t, errors.Is(err, ErrUnreadableSource), test.ShouldBeTrue)
}
