package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGEncoder_Encode(t *testing.T) {
	enc := NewPNGEncoder(128)

	uri, err := enc.Encode([]byte(`{"ticketCode":"TKT-0123456789ab"}`))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, dataURIPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestPNGEncoder_EmptyPayload(t *testing.T) {
	_, err := NewPNGEncoder(0).Encode(nil)
	require.Error(t, err)
}
