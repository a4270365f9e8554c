package wallpaper

import (
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"github.com/gabriel-vasile/mimetype"
)

// Upload is one selected file
type Upload struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// accepted maps the MIME types the picker allows to their media type
var accepted = map[string]types.MediaType{
	"image/png":  types.MediaImage,
	"image/jpeg": types.MediaImage,
	"image/webp": types.MediaImage,
	"image/gif":  types.MediaImage,
	"video/mp4":  types.MediaVideo,
}

// Accepted returns the accepted MIME types
func Accepted() []string {
	return []string{"image/png", "image/jpeg", "image/webp", "image/gif", "video/mp4"}
}

// Sniff detects the real MIME type of an upload from its content. The
// declared type is only a hint; when sniffing disagrees the content wins.
func Sniff(u Upload) (string, types.MediaType, error) {
	if len(u.Data) == 0 {
		return "", "", failure.Newf(failure.KindMediaDecode, "wallpaper.sniff", "%s: empty file", u.Name)
	}
	detected := mimetype.Detect(u.Data)
	for m := detected; m != nil; m = m.Parent() {
		if mt, ok := accepted[m.String()]; ok {
			return m.String(), mt, nil
		}
	}
	return "", "", failure.Newf(failure.KindMediaDecode, "wallpaper.sniff",
		"%s: unsupported type %s (declared %q)", u.Name, detected.String(), u.DeclaredType)
}
