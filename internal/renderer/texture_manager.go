package renderer

import (
	"sync"

	"GopherTestbed/internal/logger"
	"GopherTestbed/internal/scene"

	"go.uber.org/zap"
)

// TextureStats provides debugging and profiling information
type TextureStats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	ActiveTextures int
	Bytes          int64
}

// TextureUploader moves a scene texture to the GPU and frees it again.
type TextureUploader interface {
	Upload(t *scene.Texture) (handle uint32, bytes int64, err error)
	UpdateSampling(handle uint32, t *scene.Texture)
	Free(handle uint32)
}

type residentTexture struct {
	handle uint32
	bytes  int64
}

// TextureManager keeps one GPU copy per scene texture for as long as the
// scene texture lives. Disposing the scene texture frees the copy.
type TextureManager struct {
	uploader TextureUploader
	resident map[uint64]*residentTexture
	mu       sync.Mutex
	stats    TextureStats
}

// NewTextureManager creates a new texture manager instance
func NewTextureManager(uploader TextureUploader) *TextureManager {
	return &TextureManager{
		uploader: uploader,
		resident: make(map[uint64]*residentTexture),
	}
}

// Acquire returns the GPU handle for t, uploading it on first use.
func (tm *TextureManager) Acquire(t *scene.Texture) (uint32, error) {
	if t == nil || t.Disposed() {
		return 0, nil
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if r, ok := tm.resident[t.ID]; ok {
		tm.stats.CacheHits++
		if t.NeedsUpdate {
			tm.uploader.UpdateSampling(r.handle, t)
			t.NeedsUpdate = false
		}
		return r.handle, nil
	}

	tm.stats.CacheMisses++
	handle, bytes, err := tm.uploader.Upload(t)
	if err != nil {
		return 0, err
	}
	t.NeedsUpdate = false
	tm.resident[t.ID] = &residentTexture{handle: handle, bytes: bytes}
	tm.stats.TotalTextures++
	tm.stats.ActiveTextures++
	tm.stats.Bytes += bytes

	id := t.ID
	t.SetRelease(func() { tm.evict(id) })

	logger.Log.Debug("Texture uploaded",
		zap.String("name", t.Name),
		zap.Uint32("handle", handle),
		zap.Int("width", t.Width),
		zap.Int("height", t.Height))

	return handle, nil
}

func (tm *TextureManager) evict(id uint64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	r, ok := tm.resident[id]
	if !ok {
		return
	}
	tm.uploader.Free(r.handle)
	delete(tm.resident, id)
	tm.stats.ActiveTextures--
	tm.stats.Bytes -= r.bytes
	logger.Log.Debug("Texture freed", zap.Uint32("handle", r.handle))
}

// GetStats returns current texture manager statistics
func (tm *TextureManager) GetStats() TextureStats {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	stats := tm.stats
	stats.ActiveTextures = len(tm.resident)
	return stats
}

// LogStats logs current texture statistics
func (tm *TextureManager) LogStats() {
	stats := tm.GetStats()
	hitRate := 0.0
	if total := stats.CacheHits + stats.CacheMisses; total > 0 {
		hitRate = float64(stats.CacheHits) / float64(total)
	}
	logger.Log.Info("Texture Manager Stats",
		zap.Int("totalTextures", stats.TotalTextures),
		zap.Int("activeTextures", stats.ActiveTextures),
		zap.Int64("bytes", stats.Bytes),
		zap.Float64("hitRate", hitRate))
}

// Clear frees every GPU copy. Scene textures keep their CPU data and are
// uploaded again on next use.
func (tm *TextureManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, r := range tm.resident {
		tm.uploader.Free(r.handle)
	}
	tm.resident = make(map[uint64]*residentTexture)
	tm.stats.ActiveTextures = 0
	tm.stats.Bytes = 0
	logger.Log.Info("Texture manager cleared")
}
