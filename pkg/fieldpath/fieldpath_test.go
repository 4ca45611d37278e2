package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tiktokItem = `{
  "desc": "Pizza top a Napoli",
  "music": {"playUrl": ""},
  "video": {
    "download_addr": {"url_list": ["https://cdn.example/dl.mp4"]},
    "play_addr": {"url_list": ["https://cdn.example/play.mp4"]}
  },
  "stats": {"diggCount": 120, "collectCount": "15"}
}`

func TestField_StringSkipsEmptyAndObjects(t *testing.T) {
	doc := Parse([]byte(tiktokItem))
	audio := Paths("music.playUrl", "video.download_addr", "video.download_addr.url_list.0", "video.play_addr.url_list.0")

	assert.Equal(t, "https://cdn.example/dl.mp4", audio.String(doc))
}

func TestField_StringMissing(t *testing.T) {
	doc := Parse([]byte(tiktokItem))
	assert.Empty(t, Paths("author.nickname", "author.unique_id").String(doc))
}

func TestField_Int(t *testing.T) {
	doc := Parse([]byte(tiktokItem))

	likes := Paths("stats.diggCount").Int(doc)
	require.NotNil(t, likes)
	assert.Equal(t, int64(120), *likes)

	saves := Paths("stats.collectCount").Int(doc)
	require.NotNil(t, saves)
	assert.Equal(t, int64(15), *saves)

	assert.Nil(t, Paths("stats.shareCount").Int(doc))
}

func TestKeyContaining(t *testing.T) {
	doc := Parse([]byte(`{"id": "1", "webVideoUrl": "https://www.tiktok.com/@a/video/1", "downloadAddr": "x"}`))
	f := Field{KeyContaining("url")}.Or(Path("downloadAddr"))

	assert.Equal(t, "https://www.tiktok.com/@a/video/1", f.String(doc))
}

func TestKeyContaining_FallsThrough(t *testing.T) {
	doc := Parse([]byte(`{"id": "1", "videoUrl": "", "downloadAddr": "https://cdn/x.mp4"}`))
	f := Field{KeyContaining("url")}.Or(Path("downloadAddr"), Path("videoUrl"))

	assert.Equal(t, "https://cdn/x.mp4", f.String(doc))
}

func TestParse_Invalid(t *testing.T) {
	doc := Parse([]byte(`not json`))
	assert.False(t, doc.Exists())
	assert.Empty(t, Paths("a").String(doc))
}
