package kitti

import (
	"image"
	"sync"
)

var (
	framePoolMu sync.Mutex
	framePool   = make(map[image.Point]*sync.Pool)
)

func poolFor(w, h int) *sync.Pool {
	size := image.Pt(w, h)
	framePoolMu.Lock()
	defer framePoolMu.Unlock()
	p, ok := framePool[size]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} { return image.NewRGBA(image.Rect(0, 0, size.X, size.Y)) },
		}
		framePool[size] = p
	}
	return p
}

// borrowFrame returns a zeroed w×h frame.
func borrowFrame(w, h int) *image.RGBA {
	frame := poolFor(w, h).Get().(*image.RGBA)
	for i := range frame.Pix {
		frame.Pix[i] = 0
	}
	return frame
}

// returnFrame gives a frame obtained from borrowFrame back. The frame must not be used afterwards.
func returnFrame(frame *image.RGBA) {
	size := frame.Bounds().Size()
	poolFor(size.X, size.Y).Put(frame)
}
