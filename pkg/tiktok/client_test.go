package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const rehydrationPage = `<html><head>
<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">
{"__DEFAULT_SCOPE__":{"webapp.video-detail":{"itemInfo":{"itemStruct":{
  "id":"7301","desc":"Carbonara da Roscioli, incredibile",
  "author":{"nickname":"Mangione","uniqueId":"mangione"},
  "music":{"playUrl":"https://cdn.example/music.mp3"},
  "stats":{"diggCount":1500,"collectCount":80,"shareCount":12}
}}}}}
</script></head><body></body></html>`

const sigiPage = `<html><head>
<script id="SIGI_STATE" type="application/json">
{"ItemModule":{"7302":{"id":"7302","desc":"Pizza fritta a Napoli"}}}
</script></head></html>`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"))
}

func TestFetchItem_Rehydration(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/@mangione/video/7301", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(rehydrationPage)) //nolint:errcheck
	})

	raw, err := c.FetchItem(context.Background(), "https://www.tiktok.com/@mangione/video/7301")
	require.NoError(t, err)

	item := gjson.ParseBytes(raw)
	assert.Equal(t, "Carbonara da Roscioli, incredibile", item.Get("desc").String())
	assert.Equal(t, int64(1500), item.Get("stats.diggCount").Int())
}

func TestFetchItem_SigiState(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sigiPage)) //nolint:errcheck
	})

	raw, err := c.FetchItem(context.Background(), "https://www.tiktok.com/@a/video/7302")
	require.NoError(t, err)
	assert.Equal(t, "Pizza fritta a Napoli", gjson.GetBytes(raw, "desc").String())
}

func TestFetchItem_NoItem(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>captcha</body></html>`)) //nolint:errcheck
	})

	_, err := c.FetchItem(context.Background(), "https://www.tiktok.com/@a/video/1")
	require.ErrorIs(t, err, ErrNoItem)
}

func TestFetchItem_HTTPError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.FetchItem(context.Background(), "https://www.tiktok.com/@a/video/1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestFetchItem_InvalidURL(t *testing.T) {
	c := NewClient()
	_, err := c.FetchItem(context.Background(), "not a url")
	require.Error(t, err)
}

func TestExtractItem_InvalidJSON(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__">{broken</script>`))
	require.NoError(t, err)

	_, err = ExtractItem(doc)
	require.ErrorIs(t, err, ErrNoItem)
}
