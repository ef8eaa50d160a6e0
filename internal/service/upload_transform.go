package service

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/apperr"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
)

// derivedImage is one encoded output of the derivative branches.
type derivedImage struct {
	bytes       []byte
	width       int
	height      int
	ext         string
	contentType string
	url         string
}

// decodeChecked decodes the raw input and enforces the profile's constraints.
// It runs before any pipeline branch spawns, so a constraint-violating input
// never reaches the blob store or a moderation classifier. Constraint failures
// are validation errors, not transient ones.
func decodeChecked(data []byte, profile config.Profile) (image.Image, int, int, error) {
	img, err := decode(data)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if err := checkConstraints(w, h, profile); err != nil {
		return nil, 0, 0, err
	}
	return img, w, h, nil
}

// derivePrimary re-encodes the already-validated source to the target format.
func derivePrimary(img image.Image, w, h int, profile config.Profile) (*derivedImage, error) {
	return encode(img, w, h, profile)
}

// deriveResolution produces one named secondary output. Branches share the
// decoded source read-only; imaging.Fill never mutates its input.
func deriveResolution(img image.Image, profile config.Profile, res config.Resolution) (*derivedImage, error) {
	resized := imaging.Fill(img, res.Width, res.Height, imaging.Center, imaging.Lanczos)
	return encode(resized, res.Width, res.Height, profile)
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "input is not a decodable image", err)
	}
	return img, nil
}

func checkConstraints(w, h int, profile config.Profile) error {
	if profile.MinWidth > 0 && w < profile.MinWidth || profile.MinHeight > 0 && h < profile.MinHeight {
		return apperr.Newf(apperr.KindValidation,
			"image %dx%d is below the minimum %dx%d for profile %q",
			w, h, profile.MinWidth, profile.MinHeight, profile.Name)
	}
	if profile.MaxWidth > 0 && w > profile.MaxWidth || profile.MaxHeight > 0 && h > profile.MaxHeight {
		return apperr.Newf(apperr.KindValidation,
			"image %dx%d exceeds the maximum %dx%d for profile %q",
			w, h, profile.MaxWidth, profile.MaxHeight, profile.Name)
	}
	if profile.AspectRatio > 0 {
		ratio := float64(w) / float64(h)
		deviation := math.Abs(ratio-profile.AspectRatio) / profile.AspectRatio
		if deviation > profile.AspectTolerance {
			return apperr.Newf(apperr.KindValidation,
				"aspect ratio %.3f deviates %.1f%% from required %.2f (tolerance ±%.1f%%)",
				ratio, deviation*100, profile.AspectRatio, profile.AspectTolerance*100)
		}
	}
	return nil
}

func encode(img image.Image, w, h int, profile config.Profile) (*derivedImage, error) {
	var buf bytes.Buffer
	var ext, contentType string
	var err error

	switch profile.TargetFormat {
	case "png":
		ext, contentType = "png", "image/png"
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		ext, contentType = "jpg", "image/jpeg"
		quality := profile.Quality
		if quality <= 0 {
			quality = 85
		}
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, fmt.Sprintf("encode %s output", profile.TargetFormat), err)
	}

	return &derivedImage{
		bytes:       buf.Bytes(),
		width:       w,
		height:      h,
		ext:         ext,
		contentType: contentType,
	}, nil
}
