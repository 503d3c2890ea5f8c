// Package sequencer runs submitted operations one at a time, in submission
// order, on a single worker goroutine.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/goroutine"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/base/metrics"
)

var (
	ErrClosed = errors.New("sequencer closed")
	// ErrPanic wraps a panic raised by a submitted operation
	ErrPanic = errors.New("operation panicked")
)

type Op func(c ctx.Ctx) error

type Sequencer interface {
	// Do runs op on the worker and waits for it. Called from inside an
	// operation it runs op inline.
	Do(c ctx.Ctx, op Op) error
	Close()
}

type workerKey struct{}

type job struct {
	c   ctx.Ctx
	op  Op
	res chan error
}

type impl struct {
	inbox     chan *job
	done      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	stopped   <-chan *goroutine.PanicEvent
	met       metrics.Service
}

func New(inboxSize int, met metrics.Service) Sequencer {
	s := &impl{
		inbox:    make(chan *job, inboxSize),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		met:      met,
	}
	s.stopped = goroutine.RecoverableGo(s.loop, goroutine.WithName("sequencer"))
	return s
}

func (s *impl) loop() {
	defer close(s.finished)
	for {
		select {
		case <-s.done:
			s.drain()
			return
		case j := <-s.inbox:
			j.res <- s.run(j)
		}
	}
}

// drain fails jobs queued before Close
func (s *impl) drain() {
	for {
		select {
		case j := <-s.inbox:
			j.res <- ErrClosed
		default:
			return
		}
	}
}

func (s *impl) run(j *job) (err error) {
	if err := j.c.Err(); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			j.c.WithField("panic", p).Error("operation panicked")
			s.met.BumpSum("panic", 1)
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	defer s.met.BumpTime("op.time").End()
	wc := ctx.Ctx{
		Context: context.WithValue(j.c, workerKey{}, s),
		Logger:  j.c.Logger,
	}
	return j.op(wc)
}

func (s *impl) Do(c ctx.Ctx, op Op) error {
	if w, ok := c.Value(workerKey{}).(*impl); ok && w == s {
		return op(c)
	}

	j := &job{c: c, op: op, res: make(chan error, 1)}
	select {
	case <-s.done:
		return ErrClosed
	case <-c.Done():
		return c.Err()
	case s.inbox <- j:
	}
	s.met.BumpHistogram("inbox.len", float64(len(s.inbox)))

	// a job taken by the worker always reports, so the caller never misses a commit
	select {
	case err := <-j.res:
		return err
	case <-s.finished:
		select {
		case err := <-j.res:
			return err
		default:
			return ErrClosed
		}
	}
}

func (s *impl) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if ev, ok := <-s.stopped; ok && ev != nil {
			log.Log().WithField("panic", ev.Panic).Error("sequencer worker died")
		}
	})
}
