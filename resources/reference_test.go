package resources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestReadResource(t *testing.T) {
	h := NewReferenceHandler(nil)
	ctx := context.Background()

	res, err := h.ReadResource(ctx, SchemaURI)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	schema := gjson.Parse(res.Contents[0].Text)
	assert.Equal(t, "object", schema.Get("type").String())
	assert.True(t, schema.Get("properties.table_e").Exists())

	res, err = h.ReadResource(ctx, KeywordsURI)
	require.NoError(t, err)
	keywords := gjson.Parse(res.Contents[0].Text)
	assert.Contains(t, keywords.Get("table_e").String(), "פירוט הפקדות")

	res, err = h.ReadResource(ctx, StrategiesURI)
	require.NoError(t, err)
	assert.Equal(t, int64(4), gjson.Get(res.Contents[0].Text, "#").Int())

	_, err = h.ReadResource(ctx, "pension://unknown")
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, "pdf://doc")
	assert.Error(t, err)
}

func TestListResources(t *testing.T) {
	list := NewReferenceHandler(nil).ListResources()
	require.Len(t, list, 3)
	for _, r := range list {
		_, err := NewReferenceHandler(nil).ReadResource(context.Background(), r.URI)
		assert.NoError(t, err, r.URI)
	}
}
