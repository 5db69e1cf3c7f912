package spawn

import "sync"

// Canvas reports the current drawable bounds. ok is false until the surface
// has been measured.
type Canvas interface {
	Bounds() (width, height float64, ok bool)
}

// FixedCanvas is a canvas of constant size.
type FixedCanvas struct {
	Width, Height float64
}

func (c FixedCanvas) Bounds() (float64, float64, bool) {
	return c.Width, c.Height, c.Width > 0 && c.Height > 0
}

// ResizableCanvas tracks a surface whose size arrives later, such as a
// terminal that reports its dimensions after startup.
type ResizableCanvas struct {
	mu            sync.RWMutex
	width, height float64
}

// Resize records new bounds. Non-positive sizes mark the canvas not ready.
func (c *ResizableCanvas) Resize(width, height float64) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
}

func (c *ResizableCanvas) Bounds() (float64, float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height, c.width > 0 && c.height > 0
}
