package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engine/internal/domain"
	"engine/internal/domain/jsoncfg"
	"engine/internal/infra"
)

func syntheticConfig(t *testing.T) *infra.Config {
	t.Helper()
	root := t.TempDir()
	return &infra.Config{
		AppEnv:             "test",
		PublicBaseURL:      "http://engine.test",
		AssetsDir:          root,
		AssetsCatalogPath:  filepath.Join(root, "catalog", "assets_catalog.json"),
		AssetsFilesDir:     filepath.Join(root, "catalog_files"),
		ImageProvider:      "synthetic",
		BatchImageProvider: "synthetic",
		VideoProvider:      "synthetic",
		PollInterval:       time.Millisecond,
		MaxPolls:           1,
		DownloadTimeout:    time.Second,
		ProjectStore:       infra.ProjectStoreMemory,
	}
}

func writeCatalog(t *testing.T, cfg *infra.Config) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.AssetsCatalogPath), 0o755))
	require.NoError(t, os.MkdirAll(cfg.AssetsFilesDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.AssetsCatalogPath, []byte(`{"assets":[
		{"asset_id":"LAB_ISOMETRIC_MAIN","file_name":"lab_iso","asset_type":"location","default_context":"LAB_WIDE","visual_description":"Isometric white lab"}
	]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.AssetsFilesDir, "lab_iso.png"), []byte("png"), 0o644))
}

func TestBuildSyntheticShotRun(t *testing.T) {
	cfg := syntheticConfig(t)
	writeCatalog(t, cfg)
	e, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer e.Close()

	shot := e.Pipeline.ProcessShot(context.Background(), &domain.Shot{
		VideoID: "v1", BlockID: "B01", ShotID: "P01",
		AssetID: "LAB_ISOMETRIC_MAIN", AssetMode: domain.AssetModeImage1FVideo,
		MVContext: "LAB_MAIN", CameraMove: "pan_left", DurationSeconds: 5,
		VisualDescription: "A scientist adjusts a lens",
	})
	require.Equal(t, domain.ShotStateCompleted, shot.State, shot.ErrorMessage)
	assert.True(t, shot.ContextMismatchFlag)

	dir := filepath.Join(e.Files.BasePath(), "videos", "v1", "block_B01", "shot_P01")
	assert.Equal(t, filepath.Join(dir, "image.png"), shot.ImagePath)
	assert.FileExists(t, shot.ImagePath)
	assert.FileExists(t, shot.VideoPath)
	assert.FileExists(t, filepath.Join(dir, "metadata.json"))
}

func TestBuildSyntheticBatchRun(t *testing.T) {
	cfg := syntheticConfig(t)
	writeCatalog(t, cfg)
	e, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer e.Close()

	project, err := jsoncfg.DecodeProject([]byte(`{
		"project": {"project_id": "demo", "title": "Demo", "scope_blocks_included": ["B01"],
			"output": {"aspect_ratio": "16:9", "resolution_px": "2K", "image_format": "png"},
			"production_rules": {"nanobanana_max_reference_images": 1, "nanobanana_variants_per_image_task": 2, "approval_gate": "REQUIRED"}},
		"asset_library": {"locations": {"lab": "LAB_ISOMETRIC_MAIN"}},
		"image_tasks": [{"task_id": "t1", "block_id": "B01", "shot_id": "P01", "role": "bg",
			"refs": ["LAB_ISOMETRIC_MAIN"], "prompt": "Empty lab at dawn", "approval": {"status": "APPROVED"}}]
	}`))
	require.NoError(t, err)

	out := e.Batch.RunFull(context.Background(), project, false)
	require.Equal(t, "SUCCESS", out.Status, out.Error)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.FileExists(t, r.LocalPath)
		assert.Equal(t, "http://engine.test/assets/catalog_files/lab_iso.png", r.AssetsSent[0].ResolvedURL)
	}

	approved, err := e.Batch.CheckProjectApproval(context.Background(), "demo")
	require.NoError(t, err)
	assert.False(t, approved, "generation resets reviews")
}

func TestBuildRejectsPostgresWithoutDatabase(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.ProjectStore = infra.ProjectStorePostgres
	_, err := Build(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	cfg := syntheticConfig(t)
	cfg.VideoProvider = "sora"
	_, err := Build(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "sora")
}
