package viewer

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var (
	captionFont     *truetype.Font
	captionFontErr  error
	captionFontOnce sync.Once
)

func loadCaptionFont() (*truetype.Font, error) {
	captionFontOnce.Do(func() {
		captionFont, captionFontErr = truetype.Parse(goregular.TTF)
	})
	return captionFont, captionFontErr
}

// drawCaption writes one line of text into the bottom-left corner. The font
// size follows the image height and the text is clipped at the right edge.
func drawCaption(img *image.NRGBA, text string, col color.NRGBA) error {
	f, err := loadCaptionFont()
	if err != nil {
		return err
	}

	height := img.Bounds().Dy()
	size := math.Max(9, float64(height)/28)
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()

	padding := int(size / 2)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(img.Bounds().Min.X + padding), Y: fixed.I(img.Bounds().Max.Y - padding - face.Metrics().Descent.Ceil())},
	}
	d.DrawString(text)
	return nil
}
