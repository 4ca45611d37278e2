package video

import "github.com/sichef/sichef/pkg/fieldpath"

// extraction describes where each logical value lives in one provider's
// payload.
type extraction struct {
	description fieldpath.Field
	title       fieldpath.Field
	audio       fieldpath.Field
	author      fieldpath.Field
	thumbnail   fieldpath.Field
	likes       fieldpath.Field
	saves       fieldpath.Field
	shares      fieldpath.Field
}

// tiktokDirect covers both the web page item and the older mobile API shape
// where play URLs are nested in url_list arrays.
var tiktokDirect = extraction{
	description: fieldpath.Paths("desc"),
	audio: fieldpath.Paths(
		"music.playUrl.0",
		"music.playUrl",
		"video.download_addr",
		"video.download_addr.url_list.0",
		"video.play_addr.url_list.0",
		"video.downloadAddr",
		"video.playAddr",
	),
	author:    fieldpath.Paths("author.nickname", "author.unique_id", "author.uniqueId"),
	thumbnail: fieldpath.Paths("video.cover", "video.origin_cover", "video.originCover"),
	likes:     fieldpath.Paths("stats.diggCount", "statsV2.diggCount"),
	saves:     fieldpath.Paths("stats.collectCount", "statsV2.collectCount"),
	shares:    fieldpath.Paths("stats.shareCount", "statsV2.shareCount"),
}

var tiktokManaged = extraction{
	description: fieldpath.Paths("text", "desc", "description"),
	title:       fieldpath.Paths("title"),
	audio:       fieldpath.Paths("musicMeta.playUrl", "musicMeta.music.playUrl", "videoMeta.downloadAddr"),
	author:      fieldpath.Paths("authorMeta.name", "authorMeta.nickName", "authorMeta.uniqueId"),
	thumbnail:   fieldpath.Paths("videoMeta.coverUrl", "videoMeta.cover", "videoMeta.originCover"),
	likes:       fieldpath.Paths("diggCount"),
	saves:       fieldpath.Paths("collectCount"),
	shares:      fieldpath.Paths("shareCount"),
}

var instagramManaged = extraction{
	description: fieldpath.Paths("caption", "description"),
	title:       fieldpath.Paths("title"),
	audio:       fieldpath.Paths("videoUrl", "video_url"),
	author:      fieldpath.Paths("ownerUsername", "username"),
	thumbnail:   fieldpath.Paths("displayUrl", "thumbnailUrl", "firstImage", "imageUrl"),
	likes:       fieldpath.Paths("likesCount"),
	saves:       fieldpath.Paths("saveCount"),
	shares:      fieldpath.Paths("videoShareCount"),
}
