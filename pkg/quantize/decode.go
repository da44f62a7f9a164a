package quantize

import (
	"bufio"
	"image"
	"io"
	"os"

	// Register decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/waveflow/pkg/errors"
	"github.com/matzehuels/waveflow/pkg/grid"
)

// Decode reads an image in any registered format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode sample image")
	}
	return img, format, nil
}

// Load opens and decodes the image at path.
func Load(path string) (image.Image, error) {
	if err := errors.ValidateImagePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "sample image %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open sample image %s", path)
	}
	defer f.Close()

	img, _, err := Decode(f)
	return img, err
}

// LoadGrid loads path and quantizes it in one step.
func LoadGrid(path string, levels int, method Method) (grid.Grid, error) {
	img, err := Load(path)
	if err != nil {
		return grid.Grid{}, err
	}
	return ToGrid(img, levels, method)
}

// DecodeConfig reads only the header of an image and reports its size and
// format without decoding pixels.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode sample image header")
	}
	return cfg, format, nil
}
