package share

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// ShareURL builds the URL a share code QR resolves to.
func ShareURL(baseURL, code string) string {
	return fmt.Sprintf("%s/api/v1/ws/feed?code=%s", baseURL, url.QueryEscape(code))
}

// QRCodePNG renders the share URL for a code as a PNG image.
func QRCodePNG(baseURL, code string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(ShareURL(baseURL, code), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
