package counter

import "io"

// WriteCallback is called after every write with the total byte count.
// A non-nil error aborts the write it was called for.
type WriteCallback func(count int64) error

type Counter struct {
	count  int64
	writer io.Writer

	onWrite WriteCallback
}

func New(writer io.Writer) *Counter {
	return &Counter{writer: writer}
}

func NewWithCallback(onWrite WriteCallback, writer io.Writer) *Counter {
	return &Counter{
		writer:  writer,
		onWrite: onWrite,
	}
}

func (w *Counter) Count() int64 {
	return w.count
}

func (w *Counter) Write(buffer []byte) (n int, err error) {
	if w.onWrite != nil {
		// check against the prospective count, so that a refused chunk
		// never reaches the underlying writer
		if err = w.onWrite(w.count + int64(len(buffer))); err != nil {
			return 0, err
		}
	}

	if w.writer == nil {
		n = len(buffer)
	} else {
		n, err = w.writer.Write(buffer)
	}

	w.count += int64(n)
	return
}
