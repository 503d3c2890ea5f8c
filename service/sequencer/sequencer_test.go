package sequencer

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/metrics"
)

var mockCtx = ctx.Background()

type sequencerSuite struct {
	suite.Suite
	seq Sequencer
}

func TestSequencer(t *testing.T) {
	suite.Run(t, new(sequencerSuite))
}

func (s *sequencerSuite) SetupTest() {
	s.seq = New(16, metrics.NewNop())
}

func (s *sequencerSuite) TearDownTest() {
	s.seq.Close()
}

func (s *sequencerSuite) TestSerializes() {
	var (
		wg      sync.WaitGroup
		running int
		maxSeen int
		total   int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.seq.Do(mockCtx, func(c ctx.Ctx) error {
				// no lock: the worker is the only writer
				running++
				if running > maxSeen {
					maxSeen = running
				}
				total++
				running--
				return nil
			}))
		}()
	}
	wg.Wait()
	s.Equal(1, maxSeen)
	s.Equal(50, total)
}

func (s *sequencerSuite) TestReturnsError() {
	errOp := errors.New("op failed")
	s.Equal(errOp, s.seq.Do(mockCtx, func(c ctx.Ctx) error { return errOp }))
}

func (s *sequencerSuite) TestNestedRunsInline() {
	inner := false
	err := s.seq.Do(mockCtx, func(c ctx.Ctx) error {
		return s.seq.Do(c, func(ctx.Ctx) error {
			inner = true
			return nil
		})
	})
	s.NoError(err)
	s.True(inner)
}

func (s *sequencerSuite) TestPanicIsAnError() {
	err := s.seq.Do(mockCtx, func(c ctx.Ctx) error { panic("boom") })
	s.ErrorIs(err, ErrPanic)

	// the worker survives
	s.NoError(s.seq.Do(mockCtx, func(c ctx.Ctx) error { return nil }))
}

func (s *sequencerSuite) TestCanceledContext() {
	c, cancel := ctx.WithCancel(mockCtx)
	cancel()
	ran := false
	err := s.seq.Do(c, func(ctx.Ctx) error {
		ran = true
		return nil
	})
	s.Error(err)
	s.False(ran)
}

func (s *sequencerSuite) TestClosed() {
	s.seq.Close()
	s.Equal(ErrClosed, s.seq.Do(mockCtx, func(c ctx.Ctx) error { return nil }))
	// closing twice is fine
	s.seq.Close()
}
