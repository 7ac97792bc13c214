package request

import "sync"

const readChunkSize = 4096

// readPool recycles the scratch buffers connections read into
var readPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, readChunkSize)
		return &buf
	},
}

func getBuffer() []byte {
	buf := readPool.Get().(*[]byte)
	return (*buf)[:readChunkSize]
}

func putBuffer(buf []byte) {
	// Non-standard sizes are left to the GC
	if cap(buf) != readChunkSize {
		return
	}
	buf = buf[:readChunkSize]
	readPool.Put(&buf)
}
