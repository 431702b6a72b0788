// AngelaMos | 2026
// uploader.go

package media

import (
	"context"
	"fmt"
	"strings"
)

// Uploader stores an image and returns its public URL. Sources are either
// remote URLs, which are kept as they are, or base64 payloads with an
// optional data URI prefix.
type Uploader interface {
	Upload(ctx context.Context, source, fileName string) (string, error)
}

// NoopUploader keeps every source unchanged. It is used when no CDN is
// configured.
type NoopUploader struct{}

func (NoopUploader) Upload(_ context.Context, source, _ string) (string, error) {
	return source, nil
}

// UploadAll uploads every non-empty source in order.
func UploadAll(
	ctx context.Context,
	u Uploader,
	sources []string,
	namePrefix string,
) ([]string, error) {
	urls := make([]string, 0, len(sources))
	for i, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		url, err := u.Upload(ctx, src, fmt.Sprintf("%s-%d", namePrefix, i+1))
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
