package labels

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
)

func TestPayloadRoundTrip(t *testing.T) {
	assert.Equal(t, "KB:12:3", Payload(12, 3))

	seller, label, err := ParsePayload(" KB:12:3\n")
	require.NoError(t, err)
	assert.Equal(t, 12, seller)
	assert.Equal(t, 3, label)

	for _, bad := range []string{"", "KB:12", "XX:1:2", "KB:a:2", "KB:0:2", "KB:1:2:3"} {
		_, _, err := ParsePayload(bad)
		assert.ErrorIs(t, err, bazaar.ErrInvalidInput, bad)
	}
}

func TestQRCode(t *testing.T) {
	uri, err := QRCode(7, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(uri), "data:image/png;base64,"))
}

func TestSheetRender(t *testing.T) {
	ev := &models.Event{Name: "Frühjahrsbasar", StartsAt: time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)}
	seller := &models.Seller{SellerNumber: 7, Name: "Anna <Muster>"}
	list := []models.Article{
		{LabelNumber: 1, Name: "Hose", Size: "98", PriceCents: 350, Status: bazaar.ArticleCreated},
		{LabelNumber: 2, Name: "Jacke", PriceCents: 1200, Status: bazaar.ArticleSold},
	}
	sheet, err := NewSheet(ev, seller, list, nil)
	require.NoError(t, err)
	require.Len(t, sheet.Labels, 1)

	body, err := sheet.Render()
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "Frühjahrsbasar am 14.03.2026")
	assert.Contains(t, html, "7 / 1")
	assert.Contains(t, html, "3,50 €")
	assert.Contains(t, html, "Hose, Gr. 98")
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, "Anna &lt;Muster&gt;")
	assert.NotContains(t, html, "Jacke")
}

func TestSheetRender_Empty(t *testing.T) {
	sheet, err := NewSheet(&models.Event{Name: "Basar"}, &models.Seller{SellerNumber: 1}, nil, time.UTC)
	require.NoError(t, err)
	body, err := sheet.Render()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Keine Artikel vorhanden.")
}
