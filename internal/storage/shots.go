package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"engine/internal/domain"
)

// ShotStore lays out shot outputs as
// videos/{video_id}/block_{block_id}/shot_{shot_id}/{image|video}.{ext}
// with a sibling metadata.json.
type ShotStore struct {
	files         *FileStore
	fetcher       *Fetcher
	publicBaseURL string
}

// NewShotStore returns a ShotStore writing through files.
func NewShotStore(files *FileStore, fetcher *Fetcher, publicBaseURL string) *ShotStore {
	return &ShotStore{
		files:         files,
		fetcher:       fetcher,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// ShotDir returns the storage key of the directory holding shot outputs.
func ShotDir(shot *domain.Shot) string {
	return path.Join("videos", shot.VideoID, "block_"+shot.BlockID, "shot_"+shot.ShotID)
}

// SaveImage fetches ref and stores it as the shot's still.
func (s *ShotStore) SaveImage(ctx context.Context, shot *domain.Shot, ref string) (string, error) {
	return s.saveMedia(ctx, shot, ref, "image", "png")
}

// SaveVideo fetches ref and stores it as the shot's clip.
func (s *ShotStore) SaveVideo(ctx context.Context, shot *domain.Shot, ref string) (string, error) {
	return s.saveMedia(ctx, shot, ref, "video", "mp4")
}

// SaveMetadata serialises the full shot record next to its media.
func (s *ShotStore) SaveMetadata(ctx context.Context, shot *domain.Shot) (string, error) {
	data, err := json.MarshalIndent(shot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode metadata: %w", err)
	}
	return s.files.Write(ctx, path.Join(ShotDir(shot), "metadata.json"), data, "application/json")
}

// PublicURL maps a path inside the assets root to its served URL.
func (s *ShotStore) PublicURL(localPath string) (string, error) {
	return PublicURL(s.files, s.publicBaseURL, localPath)
}

// LocalPath maps a URL produced by PublicURL back to its file on disk.
func (s *ShotStore) LocalPath(publicURL string) (string, bool) {
	return LocalPath(s.files, s.publicBaseURL, publicURL)
}

func (s *ShotStore) saveMedia(ctx context.Context, shot *domain.Shot, ref, name, fallbackExt string) (string, error) {
	blob, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}
	if len(blob.Data) == 0 {
		return "", fmt.Errorf("storage: %s for %s is empty", name, shot.Key())
	}
	key := path.Join(ShotDir(shot), name+"."+Extension(blob, fallbackExt))
	return s.files.Write(ctx, key, blob.Data, blob.MIME)
}

// PublicURL returns base + "/assets/" + the path relative to the store root.
func PublicURL(files *FileStore, base, localPath string) (string, error) {
	rel, err := files.Rel(localPath)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + "/assets/" + rel, nil
}

// LocalPath is the inverse of PublicURL. It reports false for URLs outside
// base + "/assets/" and for keys that would escape the store root.
func LocalPath(files *FileStore, base, publicURL string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/assets/"
	if base == "" || !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	rel, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || rel == "" {
		return "", false
	}
	p, err := files.Path(rel)
	if err != nil {
		return "", false
	}
	return p, true
}
