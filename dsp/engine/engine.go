// Package engine drives the real-time loop: per block it pulls source
// partials, evaluates the effect graph, synthesizes output samples, and
// hands them to a sink, under an explicit per-block time budget.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cwbudde/algo-additive/dsp/buffer"
	"github.com/cwbudde/algo-additive/dsp/core"
	"github.com/cwbudde/algo-additive/dsp/graph"
	"github.com/cwbudde/algo-additive/dsp/partial"
	"github.com/cwbudde/algo-additive/dsp/synth"
)

// Source supplies the engine's input partials, one set per block.
type Source interface {
	ProduceSourcePartials(blockIndex uint64) (*partial.Set, error)
}

// Sink receives each rendered block. Samples are float64 and bounded only
// by the sum of active partial amplitudes; clipping and format conversion
// belong downstream. The slice is reused between blocks and must not be
// retained.
type Sink interface {
	OnBlockRendered(blockIndex uint64, samples []float64)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(blockIndex uint64, samples []float64)

// OnBlockRendered calls f.
func (f SinkFunc) OnBlockRendered(blockIndex uint64, samples []float64) {
	f(blockIndex, samples)
}

// BudgetError reports a block that finished rendering after its real-time
// deadline. The audio was still produced and delivered; the engine does not
// retry a missed deadline and continues with the next block.
type BudgetError struct {
	BlockIndex uint64
	Node       string // slowest graph node during the block, if any
	Elapsed    time.Duration
	Budget     time.Duration
}

func (e *BudgetError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("engine: block %d exceeded budget: %v > %v", e.BlockIndex, e.Elapsed, e.Budget)
	}
	return fmt.Sprintf("engine: block %d exceeded budget: %v > %v (slowest node %q)",
		e.BlockIndex, e.Elapsed, e.Budget, e.Node)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBlockBudget sets the per-block real-time deadline. Zero disables
// enforcement.
func WithBlockBudget(budget time.Duration) Option {
	return func(s *Scheduler) {
		if budget >= 0 {
			s.budget = budget
		}
	}
}

// Scheduler owns one processing pipeline: source -> graph -> synthesizer ->
// sink, advanced one block at a time in strict index order.
type Scheduler struct {
	cfg    core.ProcessorConfig
	graph  *graph.Graph
	synth  *synth.Synthesizer
	source Source
	sink   Sink

	out    *buffer.Block
	budget time.Duration
	next   uint64
}

// NewScheduler wires a scheduler to its collaborators. The sample rate and
// block size are taken from the graph's context so all stages agree.
func NewScheduler(g *graph.Graph, source Source, sink Sink, opts ...Option) (*Scheduler, error) {
	if g == nil {
		return nil, fmt.Errorf("engine: nil graph")
	}

	if source == nil {
		return nil, fmt.Errorf("engine: nil source")
	}

	if sink == nil {
		return nil, fmt.Errorf("engine: nil sink")
	}

	ctx := g.Context()
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(ctx.SampleRate),
		core.WithBlockSize(ctx.BlockSize),
	)

	s := &Scheduler{
		cfg:    cfg,
		graph:  g,
		synth:  synth.New(core.WithSampleRate(cfg.SampleRate), core.WithBlockSize(cfg.BlockSize)),
		source: source,
		sink:   sink,
		out:    buffer.New(cfg.BlockSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

// Config returns the processor configuration the pipeline runs at.
func (s *Scheduler) Config() core.ProcessorConfig {
	return s.cfg
}

// BlockIndex returns the index of the next block to be rendered.
func (s *Scheduler) BlockIndex() uint64 {
	return s.next
}

// Step renders exactly one block.
//
// A source failure aborts the block before the graph sees it, so the block
// index is NOT consumed and the next Step retries the same block. Graph or
// synthesis failures abort the block with the index consumed, since node
// state has already advanced; nothing reaches the sink either way. A
// *BudgetError is different: the block completed and was delivered, merely
// late; callers distinguish it with errors.As and typically log-and-continue.
func (s *Scheduler) Step() error {
	blockIndex := s.next

	start := time.Now()

	src, err := s.source.ProduceSourcePartials(blockIndex)
	if err != nil {
		return fmt.Errorf("engine: source at block %d: %w", blockIndex, err)
	}

	s.next++

	rendered, err := s.graph.Evaluate(src, blockIndex)
	if err != nil {
		return fmt.Errorf("engine: block %d: %w", blockIndex, err)
	}

	samples := s.out.Samples()
	if err := s.synth.Render(samples, rendered, blockIndex); err != nil {
		return fmt.Errorf("engine: block %d: %w", blockIndex, err)
	}

	s.sink.OnBlockRendered(blockIndex, samples)

	if s.budget > 0 {
		if elapsed := time.Since(start); elapsed > s.budget {
			node, _ := s.graph.SlowestNode()
			return &BudgetError{BlockIndex: blockIndex, Node: node, Elapsed: elapsed, Budget: s.budget}
		}
	}

	return nil
}

// Run renders blocks until the count is reached or ctx is cancelled.
// Cancellation is honoured only at block boundaries, never inside an
// in-flight evaluation. A missed deadline is not retried (time has passed)
// and does not stop the loop: the late block was already delivered, so Run
// keeps rendering and returns the collected *BudgetError values joined at
// the end. Any other failure aborts the loop immediately.
func (s *Scheduler) Run(ctx context.Context, blocks int) error {
	var overruns []error

	for i := 0; i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.Step()

		var budgetErr *BudgetError
		if errors.As(err, &budgetErr) {
			overruns = append(overruns, err)
			continue
		}

		if err != nil {
			return err
		}
	}

	return errors.Join(overruns...)
}
