package media

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// imageTypes maps the accepted content types to the stored file extension.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var allowedDescription = humanReadableList([]string{"JPEG", "PNG", "WebP", "GIF"})

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

func parseMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("content type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("content type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

// sniffImage checks the declared type against the leading bytes. Browsers
// sometimes send application/octet-stream; the sniffed type wins then.
func sniffImage(declared string, head []byte) (string, error) {
	sniffed := strings.ToLower(http.DetectContentType(head))
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	if _, ok := imageTypes[sniffed]; !ok {
		return "", fmt.Errorf("file must be %s", allowedDescription)
	}
	if declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return "", fmt.Errorf("declared %s but file looks like %s", declared, sniffed)
	}
	return sniffed, nil
}
