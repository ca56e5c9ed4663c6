package engine

import (
	"context"
	"fmt"
)

// CaptureFunc is the callback that runs a live browser capture. It is
// injected from main.go to avoid an import cycle (engine -> capture).
type CaptureFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine renders the page in the shared browser. The forceStealth flag
// distinguishes "rod" from "rod-stealth".
type RodEngine struct {
	capture      CaptureFunc
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine around capture.
func NewRodEngine(capture CaptureFunc, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		capture:      capture,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.capture == nil {
		return nil, fmt.Errorf("%s: capture not configured", e.name)
	}

	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.capture(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	result.EngineName = e.name
	return result, nil
}
