package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidgetTypeUnmarshal(t *testing.T) {
	var body struct {
		Type WidgetType `json:"widget_type"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"widget_type":"link"}`), &body))
	assert.Equal(t, WidgetTypeLink, body.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"widget_type":40}`), &body))
	assert.Equal(t, WidgetTypeWeather, body.Type)
	assert.True(t, body.Type.Valid())

	require.NoError(t, json.Unmarshal([]byte(`{"widget_type":7}`), &body))
	assert.False(t, body.Type.Valid())

	assert.Error(t, json.Unmarshal([]byte(`{"widget_type":"sticker"}`), &body))
}

func TestWidgetTypeMarshalsAsInteger(t *testing.T) {
	out, err := json.Marshal(map[string]WidgetType{"widget_type": WidgetTypeDateTime})
	require.NoError(t, err)
	assert.JSONEq(t, `{"widget_type":30}`, string(out))
	assert.Equal(t, "DATETIME", WidgetTypeDateTime.String())
}

func TestSpaceAccessUnmarshal(t *testing.T) {
	var a SpaceAccess
	require.NoError(t, json.Unmarshal([]byte(`"public"`), &a))
	assert.Equal(t, SpaceAccessPublic, a)

	require.NoError(t, json.Unmarshal([]byte(`1`), &a))
	assert.Equal(t, SpaceAccessPrivate, a)
	assert.Equal(t, "PRIVATE", a.String())

	require.NoError(t, json.Unmarshal([]byte(`3`), &a))
	assert.False(t, a.Valid())
}

func TestJSONHelpers(t *testing.T) {
	var empty JSON
	assert.JSONEq(t, `{}`, string(empty.Raw()))
	assert.Empty(t, empty.StringMap())

	j, err := NewJSON(map[string]interface{}{"title": "Home", "width": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "Home"}, j.StringMap())

	out, err := json.Marshal(struct {
		Layout JSON `json:"layout"`
	}{Layout: EmptyObject()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"layout":{}}`, string(out))
}

func TestHashURL(t *testing.T) {
	a := HashURL("https://example.com/x")
	b := HashURL("https://example.com/x")
	c := HashURL("https://example.com/y")

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
