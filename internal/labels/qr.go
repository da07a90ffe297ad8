package labels

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/kinderbasar/backend/internal/bazaar"
)

const (
	payloadPrefix = "KB"
	qrSize        = 128
)

// Payload is the text encoded in a label's QR code.
func Payload(sellerNumber, labelNumber int) string {
	return fmt.Sprintf("%s:%d:%d", payloadPrefix, sellerNumber, labelNumber)
}

// ParsePayload reads a scanned label code back into seller and label number.
func ParsePayload(s string) (sellerNumber, labelNumber int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 || parts[0] != payloadPrefix {
		return 0, 0, bazaar.ErrInvalidInput.WithDetail("code")
	}
	sellerNumber, err1 := strconv.Atoi(parts[1])
	labelNumber, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || sellerNumber <= 0 || labelNumber <= 0 {
		return 0, 0, bazaar.ErrInvalidInput.WithDetail("code")
	}
	return sellerNumber, labelNumber, nil
}

// QRCode renders the label payload as a PNG data URI for inline <img> tags.
func QRCode(sellerNumber, labelNumber int) (template.URL, error) {
	png, err := qrcode.Encode(Payload(sellerNumber, labelNumber), qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
