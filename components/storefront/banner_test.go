package storefront

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTimestamp(t *testing.T, s string) *Timestamp {
	t.Helper()
	ts, err := ParseTimestamp(s)
	require.NoError(t, err)
	return &ts
}

func TestBannerDecodesBackendPayload(t *testing.T) {
	raw := `{
		"notificacion_id": 7,
		"tipo": "oferta",
		"titulo": "Promo",
		"mensaje": "20% en todo",
		"fecha_creacion": "2026-10-15T10:00:00",
		"expira": null,
		"relacion_tipo": "producto",
		"relacion_id": 5
	}`
	var b Banner
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, int64(7), b.ID)
	assert.Nil(t, b.ExpiresAt)
	assert.True(t, time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local).Equal(b.CreatedAt.Time))
	assert.True(t, b.RelationID.Valid)
	assert.False(t, b.RelationID.IsString)
	assert.Equal(t, "5", b.RelationID.Value)
	assert.True(t, b.Present())
}

func TestParseTimestampZones(t *testing.T) {
	local := time.Date(2026, 10, 15, 10, 30, 0, 0, time.Local)
	for _, s := range []string{"2026-10-15T10:30:00", "2026-10-15 10:30:00", "2026-10-15T10:30:00.000000"} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, local.Equal(ts.Time), s)
	}

	zoned := mustTimestamp(t, "2026-10-15T10:30:00-05:00")
	assert.True(t, time.Date(2026, 10, 15, 15, 30, 0, 0, time.UTC).Equal(zoned.Time))

	day := mustTimestamp(t, "2026-10-15")
	assert.True(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.Local).Equal(day.Time))

	_, err := ParseTimestamp("15/10/2026")
	assert.Error(t, err)
}

func TestBannerFingerprintTracksContent(t *testing.T) {
	base := Banner{ID: 1, Kind: BannerKindBanner, Title: "Hola", Message: "Bienvenido"}
	same := base
	edited := base
	edited.Message = "Bienvenida"

	assert.Equal(t, base.Fingerprint(), same.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), edited.Fingerprint())
	assert.True(t, strings.HasPrefix(base.DismissKey(), "banner:dismiss:"))

	expiring := base
	expiring.ExpiresAt = mustTimestamp(t, "2026-10-16T00:00:00Z")
	assert.NotEqual(t, base.Fingerprint(), expiring.Fingerprint())
}

func TestBannerDeadline(t *testing.T) {
	created := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	fallback := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	explicit := Banner{ID: 1, Kind: BannerKindInfo, ExpiresAt: mustTimestamp(t, "2026-10-15T18:30:00Z")}
	deadline, ok := explicit.Deadline(fallback)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC), deadline)

	offer := Banner{ID: 2, Kind: BannerKindOffer, CreatedAt: Timestamp{Time: created}}
	deadline, ok = offer.Deadline(fallback)
	require.True(t, ok)
	assert.Equal(t, created.Add(2*time.Hour), deadline)

	undated := Banner{ID: 3, Kind: BannerKindOffer}
	deadline, ok = undated.Deadline(fallback)
	require.True(t, ok)
	assert.Equal(t, fallback.Add(2*time.Hour), deadline)

	_, ok = Banner{ID: 4, Kind: BannerKindInfo}.Deadline(fallback)
	assert.False(t, ok)

	remaining, ok := offer.Remaining(created.Add(3*time.Hour), fallback)
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), remaining)
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatCountdown(0))
	assert.Equal(t, "00:00:00", FormatCountdown(-5*time.Second))
	assert.Equal(t, "00:01:05", FormatCountdown(65*time.Second+400*time.Millisecond))
	assert.Equal(t, "25:01:01", FormatCountdown(25*time.Hour+61*time.Second))
}

func TestBannerCallToAction(t *testing.T) {
	cases := []struct {
		name   string
		banner Banner
		want   *CallToAction
	}{
		{
			name:   "product",
			banner: Banner{RelationType: "producto", RelationID: RelationID{Value: "5", Valid: true}},
			want:   &CallToAction{Kind: CTAInternal, Target: "/productos/5", Label: "Ver producto"},
		},
		{
			name:   "category",
			banner: Banner{RelationType: "Categoria", RelationID: RelationID{Value: "3", Valid: true}},
			want:   &CallToAction{Kind: CTAInternal, Target: "/productos?categoria_id=3", Label: "Ver categoría"},
		},
		{
			name:   "url",
			banner: Banner{RelationType: "url", RelationID: RelationID{Value: "https://example.com", IsString: true, Valid: true}},
			want:   &CallToAction{Kind: CTAExternal, Target: "https://example.com", Label: "Ver más"},
		},
		{
			name:   "numeric url",
			banner: Banner{RelationType: "url", RelationID: RelationID{Value: "9", Valid: true}},
		},
		{
			name:   "missing relation",
			banner: Banner{RelationType: "producto"},
		},
		{
			name:   "unknown relation",
			banner: Banner{RelationType: "pedido", RelationID: RelationID{Value: "1", Valid: true}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cta, ok := tc.banner.CallToAction()
			if tc.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, *tc.want, cta)
		})
	}
}
