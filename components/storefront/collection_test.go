package storefront

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollectionShapes(t *testing.T) {
	arr, err := DecodeCollection([]byte(`[{"id": 1}, {"id": 2}]`))
	require.NoError(t, err)
	assert.Equal(t, ShapeArray, arr.Shape)
	assert.Equal(t, 2, arr.Count)
	assert.Equal(t, json.Number("1"), arr.Items[0]["id"])

	env, err := DecodeCollection([]byte(`{"count": 40, "next": "http://x/?page=2", "previous": null, "results": [{"id": 12345678901234}]}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeEnvelope, env.Shape)
	assert.Equal(t, 40, env.Count)
	assert.Equal(t, "http://x/?page=2", env.Next)
	id, ok := env.Items[0].ID("id")
	require.True(t, ok)
	assert.Equal(t, "12345678901234", id)

	empty, err := DecodeCollection([]byte(" null "))
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)

	_, err = DecodeCollection([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestCollectionInsideStruct(t *testing.T) {
	var out struct {
		Data Collection `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"data": {"results": []}}`), &out))
	assert.Equal(t, ShapeEnvelope, out.Data.Shape)
	assert.Empty(t, out.Data.Items)
}

func TestRecordHelpers(t *testing.T) {
	rec := Record{
		"id":        json.Number("5"),
		"activo":    true,
		"leida":     "false",
		"destacado": json.Number("1"),
		"cantidad":  " 4 ",
		"vacio":     nil,
	}
	id, ok := rec.ID("id")
	assert.True(t, ok)
	assert.Equal(t, "5", id)
	_, ok = rec.ID("vacio")
	assert.False(t, ok)

	assert.True(t, rec.Bool("activo"))
	assert.False(t, rec.Bool("leida"))
	assert.True(t, rec.Bool("destacado"))
	assert.False(t, rec.Bool("missing"))
	assert.Equal(t, 4, rec.Int("cantidad"))
	assert.Equal(t, "", rec.String("vacio"))

	changed := rec.With("activo", false)
	assert.True(t, rec.Bool("activo"))
	assert.False(t, changed.Bool("activo"))
	assert.Nil(t, Record(nil).Clone())
}

func TestParamsKeyIsOrderIndependent(t *testing.T) {
	a := Params{"page": "2", "q": "café"}
	b := Params{"q": "café", "page": "2"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "café", a.Values().Get("q"))

	c := a.Clone()
	c["page"] = "3"
	assert.Equal(t, "2", a["page"])
}
