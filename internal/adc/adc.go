// Package adc samples the analog pedals and hands each conversion to the
// calibrators.
package adc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/footctl/internal/logic"
)

// Reader performs one conversion on a hardware channel.
type Reader interface {
	ReadRaw(channel int) (uint16, error)
}

// SampleSink receives completed conversions. logic.Engine satisfies it.
type SampleSink interface {
	AddSample(ch logic.ChannelID, raw uint16)
}

// Sampler converts the logical channels in fixed rotation. After a
// conversion is delivered the next channel is armed.
type Sampler struct {
	reader   Reader
	channels [logic.NumChannels]int
	sink     SampleSink
	logger   *slog.Logger

	next    logic.ChannelID
	failing bool
}

// NewSampler maps logical channel i to hardware channel channels[i].
func NewSampler(r Reader, channels []int, sink SampleSink, logger *slog.Logger) (*Sampler, error) {
	if len(channels) != logic.NumChannels {
		return nil, fmt.Errorf("analog channels: got %d, need %d", len(channels), logic.NumChannels)
	}
	s := &Sampler{reader: r, sink: sink, logger: logger}
	copy(s.channels[:], channels)
	return s, nil
}

// Next returns the channel the next Step converts.
func (s *Sampler) Next() logic.ChannelID {
	return s.next
}

// Step converts the armed channel, delivers the value and arms the next
// channel. A failed conversion still advances the rotation.
func (s *Sampler) Step() error {
	ch := s.next
	s.next = (ch + 1) % logic.NumChannels

	raw, err := s.reader.ReadRaw(s.channels[ch])
	if err != nil {
		return fmt.Errorf("sample channel %d: %w", ch, err)
	}
	s.sink.AddSample(ch, raw)
	return nil
}

// Run steps once per interval until ctx is done. Conversion errors are
// logged once per failure streak.
func (s *Sampler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *Sampler) step() {
	err := s.Step()
	switch {
	case err != nil && !s.failing:
		s.logger.Warn("adc: conversion failed", "err", err)
		s.failing = true
	case err == nil && s.failing:
		s.logger.Info("adc: conversions recovered")
		s.failing = false
	}
}
