package storage

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidImageType = errors.New("invalid image type")
	ErrDecodeFailure    = errors.New("could not decode image data URI")
)

var reImageDataURI = regexp.MustCompile(`^data:image/(\w+);base64,`)

// DecodeImageDataURI parses a "data:image/<ext>;base64,<payload>" URI.
// Only jpg, jpeg, gif and png are accepted.
func DecodeImageDataURI(uri string) (ext string, data []byte, err error) {
	match := reImageDataURI.FindStringSubmatch(uri)
	if match == nil {
		return "", nil, ErrDecodeFailure
	}

	ext = strings.ToLower(match[1])
	switch ext {
	case "jpg", "jpeg", "gif", "png":
		// ok
	default:
		return "", nil, ErrInvalidImageType
	}

	payload := uri[len(match[0]):]
	// '+' may have been mangled into spaces in transit
	payload = strings.ReplaceAll(payload, " ", "+")
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrDecodeFailure
	}
	return ext, data, nil
}
