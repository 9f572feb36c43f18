package notify

import (
	"errors"
	"io"
	"sync"

	"github.com/hupe1980/kohonen/codec"
)

// Publisher is anything events can be published to.
type Publisher[E any] interface {
	Publish(topic string, event E) error
}

var _ Publisher[int] = (*Broker[int])(nil)

// StreamSink writes every event as one encoded line to w, ignoring the topic.
type StreamSink[E any] struct {
	mu    sync.Mutex
	w     io.Writer
	codec codec.Codec
}

// NewStreamSink creates a StreamSink. A nil codec selects codec.Default.
func NewStreamSink[E any](w io.Writer, c codec.Codec) *StreamSink[E] {
	if c == nil {
		c = codec.Default
	}
	return &StreamSink[E]{w: w, codec: c}
}

// Publish implements Publisher.
func (s *StreamSink[E]) Publish(_ string, event E) error {
	b, err := s.codec.Marshal(event)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.w.Write(b)
	return err
}

// Fanout publishes to every wrapped publisher and joins their errors.
type Fanout[E any] []Publisher[E]

// Publish implements Publisher.
func (f Fanout[E]) Publish(topic string, event E) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
