package models

import "fmt"

const imageBaseURL = "https://image.tmdb.org/t/p"

type ImageSize string

const (
	ImageSizeOriginal ImageSize = "original"
	ImageSizeW500     ImageSize = "w500"
	ImageSizeW185     ImageSize = "w185"
)

// ImageURL makes absolute image url from catalog image path.
func ImageURL(path string, size ImageSize) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = ImageSizeOriginal
	}
	return fmt.Sprintf("%v/%v%v", imageBaseURL, size, path)
}

type RatingBand int

const (
	RatingBandLow RatingBand = iota
	RatingBandMid
	RatingBandHigh
)

func (s RatingBand) String() string {
	switch s {
	case RatingBandLow:
		return "low"
	case RatingBandMid:
		return "mid"
	case RatingBandHigh:
		return "high"
	default:
		return "unknown"
	}
}

func GetRatingBand(vote float64) RatingBand {
	switch {
	case vote <= 5:
		return RatingBandLow
	case vote <= 7:
		return RatingBandMid
	default:
		return RatingBandHigh
	}
}
