// Package media handles local file intake for the player, the gallery and
// the background slot.
package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind is the media class of a file.
type Kind string

const (
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindImage   Kind = "image"
	KindGeneric Kind = "generic"
)

var extKinds = map[string]Kind{}

func init() {
	for _, ext := range []string{"mp4", "webm", "ogg", "mov", "mkv", "avi", "wmv", "flv", "m4v", "3gp"} {
		extKinds[ext] = KindVideo
	}
	for _, ext := range []string{"mp3", "wav", "flac", "aac", "m4a", "opus", "oga", "wma"} {
		extKinds[ext] = KindAudio
	}
	for _, ext := range []string{"png", "jpg", "jpeg", "gif", "webp", "bmp", "svg", "avif"} {
		extKinds[ext] = KindImage
	}
}

// Classify uses the declared MIME type first, then the file extension.
func Classify(declaredType, name string) Kind {
	if k := kindOfMIME(declaredType); k != KindGeneric {
		return k
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return KindGeneric
	}
	if k, ok := extKinds[ext]; ok {
		return k
	}
	return kindOfMIME(mime.TypeByExtension("." + ext))
}

func kindOfMIME(t string) Kind {
	t = strings.ToLower(strings.TrimSpace(t))
	switch {
	case strings.HasPrefix(t, "video/"):
		return KindVideo
	case strings.HasPrefix(t, "audio/"):
		return KindAudio
	case strings.HasPrefix(t, "image/"):
		return KindImage
	}
	return KindGeneric
}
