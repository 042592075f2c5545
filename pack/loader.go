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
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const tokenDelimiter = ';'

// IntensitySample converts a grayscale intensity to a sample. Zero intensity
// marks empty space and gets a zero alpha.
func IntensitySample(v uint8) Sample {
	var alpha uint8 = 255
	if v == 0 {
		alpha = 0
	}
	return Pack(v, v, v, alpha)
}

func LoadGrid(path string) (samples []Sample, err error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableSource, "open %q: %v", path, err)
	}
	defer func() {
		if cerr := fp.Close(); cerr != nil && err == nil {
			samples, err = nil, errors.Wrapf(ErrUnreadableSource, "close %q: %v", path, cerr)
		}
	}()
	return DecodeGrid(fp)
}

func scanTokens(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, tokenDelimiter); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF && len(data) > 0 {
		if len(bytes.TrimSpace(data)) == 0 {
			return len(data), nil, nil
		}
		return 0, nil, errors.Wrapf(ErrInvalidToken, "unterminated token %q", bytes.TrimSpace(data))
	}
	return 0, nil, nil
}

// DecodeGrid parses ';' terminated decimal intensities in row-major order.
// Nothing is returned unless the whole stream parses.
func DecodeGrid(reader io.Reader) ([]Sample, error) {
	var samples []Sample

	scanner := bufio.NewScanner(reader)
	scanner.Split(scanTokens)

	for scanner.Scan() {
		text := string(bytes.TrimSpace(scanner.Bytes()))
		v, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidToken, "token %d (%q)", len(samples), text)
		}
		samples = append(samples, IntensitySample(uint8(v)))
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrUnreadableSource, "after %d tokens: %v", len(samples), err)
	}
	return samples, nil
}

func EncodeGrid(writer io.Writer, intensities []uint8) error {
	w := bufio.NewWriter(writer)
	buf := make([]byte, 0, 4)
	for _, v := range intensities {
		buf = strconv.AppendUint(buf[:0], uint64(v), 10)
		buf = append(buf, tokenDelimiter)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

func SaveGrid(path string, intensities []uint8) (err error) {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, fp.Close())
	}()
	return EncodeGrid(fp, intensities)
}
