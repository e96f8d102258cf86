package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

const maxFetchBytes = 512 << 20

// Blob is fetched media plus the MIME type it was announced or detected as.
type Blob struct {
	Data []byte
	MIME string
}

// Fetcher loads generator output, which arrives as a data URI, an http(s)
// URL or a local file path.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose downloads are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// NewFetcherWithClient uses client for downloads.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch resolves ref into bytes.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (Blob, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Blob{}, errors.New("storage: empty media reference")
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.download(ctx, ref)
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return Blob{}, fmt.Errorf("storage: read %s: %w", ref, err)
		}
		return Blob{Data: data, MIME: DetectMIME(data, "")}, nil
	}
}

func (f *Fetcher) download(ctx context.Context, url string) (Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Blob{}, fmt.Errorf("storage: create download request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Blob{}, fmt.Errorf("storage: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Blob{}, fmt.Errorf("storage: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Blob{}, fmt.Errorf("storage: read download: %w", err)
	}
	return Blob{Data: data, MIME: DetectMIME(data, resp.Header.Get("Content-Type"))}, nil
}

func decodeDataURI(ref string) (Blob, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return Blob{}, errors.New("storage: malformed data uri")
	}
	mime := header
	isBase64 := false
	if i := strings.Index(header, ";"); i >= 0 {
		mime = header[:i]
		isBase64 = strings.Contains(header[i:], ";base64")
	}
	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Blob{}, fmt.Errorf("storage: decode data uri: %w", err)
		}
		data = decoded
	} else {
		data = []byte(payload)
	}
	return Blob{Data: data, MIME: DetectMIME(data, mime)}, nil
}

// DetectMIME sniffs data and falls back to hint when the content is not
// recognised.
func DetectMIME(data []byte, hint string) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if i := strings.Index(hint, ";"); i >= 0 {
		hint = hint[:i]
	}
	return strings.ToLower(strings.TrimSpace(hint))
}

var mimeExtensions = map[string]string{
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/webp":      "webp",
	"image/gif":       "gif",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/webm":      "webm",
}

// Extension picks a file extension for blob, preferring sniffed content over
// the announced MIME type and fallback last.
func Extension(blob Blob, fallback string) string {
	if kind, err := filetype.Match(blob.Data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	if ext, ok := mimeExtensions[blob.MIME]; ok {
		return ext
	}
	return fallback
}
