package storefront

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Banner kinds sent in the tipo field.
const (
	BannerKindBanner = "banner"
	BannerKindInfo   = "info"
	BannerKindNotice = "aviso"
	BannerKindOffer  = "oferta"
)

// OfferFallbackDuration is how long an offer without an explicit expiry stays up.
const OfferFallbackDuration = 2 * time.Hour

const dismissKeyPrefix = "banner:dismiss:"

// Banner is a promotional notification shown above the storefront.
type Banner struct {
	ID           int64      `json:"notificacion_id"`
	Kind         string     `json:"tipo"`
	Title        string     `json:"titulo"`
	Message      string     `json:"mensaje"`
	CreatedAt    Timestamp  `json:"fecha_creacion"`
	ExpiresAt    *Timestamp `json:"expira,omitempty"`
	RelationType string     `json:"relacion_tipo"`
	RelationID   RelationID `json:"relacion_id"`
}

// RelationID is the banner's link target: a numeric id or a URL string.
type RelationID struct {
	Value    string
	IsString bool
	Valid    bool
}

// UnmarshalJSON accepts numbers, strings and null.
func (r *RelationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = RelationID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("storefront: decode relacion_id: %w", err)
		}
		*r = RelationID{Value: s, IsString: true, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("storefront: decode relacion_id: %w", err)
	}
	*r = RelationID{Value: n.String(), Valid: true}
	return nil
}

// MarshalJSON writes the id back in its original JSON kind.
func (r RelationID) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	if r.IsString {
		return json.Marshal(r.Value)
	}
	return []byte(r.Value), nil
}

// Timestamp parses the ISO-8601 variants the backend emits, with or
// without zone offset and fractional seconds.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Zone-less layouts read in the local zone, as a browser Date would.
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// ParseTimestamp parses s using the accepted layouts. Values without a zone
// offset are local time.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("storefront: unsupported timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("storefront: decode timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Present reports whether the banner carries an identifier. Payloads
// without one are treated as "no banner".
func (b *Banner) Present() bool {
	return b != nil && b.ID != 0
}

// Fingerprint hashes the content fields that define a banner version.
// Editing any of them yields a new fingerprint.
func (b Banner) Fingerprint() string {
	expires := ""
	if b.ExpiresAt != nil && !b.ExpiresAt.IsZero() {
		expires = b.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	parts := []string{
		strconv.FormatInt(b.ID, 10),
		b.Kind,
		b.Title,
		b.Message,
		b.RelationType,
		b.RelationID.Value,
		expires,
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// DismissKey is the storage key recording this banner version as dismissed.
func (b Banner) DismissKey() string {
	return dismissKeyPrefix + b.Fingerprint()
}

// Deadline returns when the banner stops showing. Explicit expiry wins;
// offers default to creation time plus two hours, using fallbackStart when
// the creation time is missing. Other kinds have no deadline.
func (b Banner) Deadline(fallbackStart time.Time) (time.Time, bool) {
	if b.ExpiresAt != nil && !b.ExpiresAt.IsZero() {
		return b.ExpiresAt.Time, true
	}
	if b.Kind != BannerKindOffer {
		return time.Time{}, false
	}
	start := b.CreatedAt.Time
	if start.IsZero() {
		start = fallbackStart
	}
	return start.Add(OfferFallbackDuration), true
}

// Remaining returns max(0, deadline-now) and whether a deadline exists.
func (b Banner) Remaining(now, fallbackStart time.Time) (time.Duration, bool) {
	deadline, ok := b.Deadline(fallbackStart)
	if !ok {
		return 0, false
	}
	return max(0, deadline.Sub(now)), true
}

// FormatCountdown renders d as zero-padded HH:MM:SS. Hours are not wrapped
// at 24.
func FormatCountdown(d time.Duration) string {
	total := max(int64(0), int64(d/time.Second))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// CTAKind distinguishes in-app links from external ones.
type CTAKind string

const (
	CTAInternal CTAKind = "internal"
	CTAExternal CTAKind = "external"
)

// CallToAction is the optional link rendered next to a banner.
type CallToAction struct {
	Kind   CTAKind
	Target string
	Label  string
}

// CallToAction resolves the banner's relation into a link, if any.
func (b Banner) CallToAction() (CallToAction, bool) {
	if !b.RelationID.Valid {
		return CallToAction{}, false
	}
	switch strings.ToLower(b.RelationType) {
	case "producto":
		return CallToAction{Kind: CTAInternal, Target: "/productos/" + b.RelationID.Value, Label: "Ver producto"}, true
	case "categoria":
		return CallToAction{Kind: CTAInternal, Target: "/productos?categoria_id=" + b.RelationID.Value, Label: "Ver categoría"}, true
	case "url":
		if !b.RelationID.IsString {
			return CallToAction{}, false
		}
		return CallToAction{Kind: CTAExternal, Target: b.RelationID.Value, Label: "Ver más"}, true
	}
	return CallToAction{}, false
}
