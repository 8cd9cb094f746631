package service

import (
	"fmt"
	"regexp"

	"loyaltypush/internal/model"
)

// Media markers are matched case-insensitively. The greedy ".*" means a marker
// is "exact" whenever the content starts with "[Image:" and ends with "]".
//
// RE2's \s is ASCII only. The separator also accepts vertical tab, Unicode
// space separators (NBSP, ideographic space, ...), line/paragraph separators
// and BOM.
const markerSeparator = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`

var (
	imageOnlyPattern    = regexp.MustCompile(`(?i)^\[Image:.*\]$`)
	videoOnlyPattern    = regexp.MustCompile(`(?i)^\[Video:.*\]$`)
	imageCommentPattern = regexp.MustCompile(`(?i)^\[Image:.*\]` + markerSeparator + `(.+)$`)
	videoCommentPattern = regexp.MustCompile(`(?i)^\[Video:.*\]` + markerSeparator + `(.+)$`)
)

// Classify decides how a chat message reads in a notification.
//
// Precedence: bare image marker, bare video marker, image marker with
// trailing text, video marker with trailing text, plain text. For media-only
// content DisplayBody is the raw content; the dispatcher replaces it.
func Classify(content, sender string) model.Classification {
	switch {
	case imageOnlyPattern.MatchString(content):
		return model.Classification{DisplayBody: content, IsMediaOnly: true, MediaType: model.MediaImage}
	case videoOnlyPattern.MatchString(content):
		return model.Classification{DisplayBody: content, IsMediaOnly: true, MediaType: model.MediaVideo}
	case imageCommentPattern.MatchString(content):
		return model.Classification{
			DisplayBody: fmt.Sprintf("%s commented on an %s", sender, model.MediaImage),
			MediaType:   model.MediaImage,
		}
	case videoCommentPattern.MatchString(content):
		return model.Classification{
			DisplayBody: fmt.Sprintf("%s commented on a %s", sender, model.MediaVideo),
			MediaType:   model.MediaVideo,
		}
	default:
		return model.Classification{DisplayBody: content}
	}
}

// notificationBody is the text actually pushed for a classified message.
// Group and direct chats get the same media-only text.
func notificationBody(c model.Classification) string {
	if c.IsMediaOnly {
		return fmt.Sprintf("New %s shared with you!", c.MediaType)
	}
	return c.DisplayBody
}
