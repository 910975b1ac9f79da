// Package ingestion 提供链接识别与字幕抓取的并发去重
package ingestion

import (
	"net/url"
	"regexp"
	"strings"

	"autopen-api/internal/domain/entity"
)

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractYouTubeID 从常见的 YouTube 链接形态中提取视频 ID。
// 支持 watch?v=、youtu.be/、shorts/、embed/、live/；无法识别返回空串。
func ExtractYouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return validateID(strings.TrimPrefix(u.Path, "/"))
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return validateID(id)
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				if i := strings.IndexByte(rest, '/'); i >= 0 {
					rest = rest[:i]
				}
				return validateID(rest)
			}
		}
	}
	return ""
}

func validateID(id string) string {
	if youtubeIDPattern.MatchString(id) {
		return id
	}
	return ""
}

// DetectLinkType 依据 URL 判定链接类型
func DetectLinkType(raw string) entity.LinkType {
	if ExtractYouTubeID(raw) != "" {
		return entity.LinkTypeYouTube
	}
	return entity.LinkTypeWebpage
}

// ThumbnailURL 返回 YouTube 视频的标准封面图地址
func ThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}

// ContentKey 抓取去重键：同一视频共享一次抓取，其余链接按 URL 去重
func ContentKey(raw string) string {
	if id := ExtractYouTubeID(raw); id != "" {
		return "yt:" + id
	}
	return "url:" + strings.TrimSpace(raw)
}
