package qrcode

import (
	"encoding/base64"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"

	"eventticketing/internal/domain"
)

const dataURIPrefix = "data:image/png;base64,"

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

type pngEncoder struct {
	size  int
	level goqrcode.RecoveryLevel
}

// NewPNGEncoder returns a QREncoder producing base64 PNG data URIs.
func NewPNGEncoder(size int) domain.QREncoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &pngEncoder{size: size, level: goqrcode.Medium}
}

func (e *pngEncoder) Encode(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("qrcode: empty payload")
	}
	png, err := goqrcode.Encode(string(payload), e.level, e.size)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
