// Package flow runs named, schema-typed prompt flows: validate the input,
// render the prompt, call the provider, coerce the output. Each invocation is
// independent; nothing is cached or shared between calls.
package flow

import (
	"context"
	"errors"
	"log"
	"time"

	"codecanvas/pkg/core/llm"
	"codecanvas/pkg/core/schema"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("codecanvas/flow")

// Flow is a Definition bound to the provider that fulfills it.
type Flow struct {
	def      *Definition
	provider llm.Provider
}

func New(def *Definition, provider llm.Provider) *Flow {
	return &Flow{def: def, provider: provider}
}

func (f *Flow) Name() string { return f.def.Name() }

func (f *Flow) Definition() *Definition { return f.def }

// invocation is the transient state of one call.
type invocation struct {
	id     string
	input  map[string]any
	prompt string
	raw    map[string]any
	output map[string]any
}

// Invoke runs the flow on input. The returned object holds exactly the fields of
// the output schema. Every failure is a *Error; no partially filled output is
// ever returned with it.
func (f *Flow) Invoke(ctx context.Context, input map[string]any) (map[string]any, error) {
	inv := &invocation{id: uuid.NewString(), input: input}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "flow."+f.def.Name())
	defer span.End()
	span.SetAttributes(
		attribute.String("flow.name", f.def.Name()),
		attribute.String("flow.invocation_id", inv.id),
	)

	out, err := f.run(ctx, inv)
	if err != nil {
		fe := err.(*Error)
		span.RecordError(err)
		span.SetStatus(codes.Error, fe.Kind.String())
		log.Printf("[flow] %s id=%s failed after %s: %v", f.def.Name(), inv.id, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	log.Printf("[flow] %s id=%s ok in %s (prompt_bytes=%d)", f.def.Name(), inv.id, time.Since(start).Round(time.Millisecond), len(inv.prompt))
	return out, nil
}

func (f *Flow) run(ctx context.Context, inv *invocation) (map[string]any, error) {
	fail := func(kind Kind, cause error) error {
		return &Error{Kind: kind, Flow: f.def.Name(), InvocationID: inv.id, Cause: cause}
	}

	// A caller that was denied (or gave up) before the call starts gets
	// Cancelled without any work being done.
	if err := ctx.Err(); err != nil {
		return nil, fail(KindCancelled, err)
	}

	// 1. Validate
	validated, err := schema.Validate(inv.input, f.def.Input())
	if err != nil {
		return nil, fail(KindInvalidInput, err)
	}
	inv.input = validated

	// 2. Render
	inv.prompt, err = f.def.Template().Render(inv.input)
	if err != nil {
		return nil, fail(KindTemplateError, err)
	}

	// 3. Invoke the provider
	inv.raw, err = f.provider.Invoke(ctx, inv.prompt, f.def.Output())
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return nil, fail(KindCancelled, context.Canceled)
	}
	if err != nil {
		if errors.Is(err, llm.ErrMalformedOutput) {
			return nil, fail(KindOutputMismatch, err)
		}
		return nil, fail(KindProviderFailure, normalizeProviderError(f.provider, err))
	}

	// 4. Coerce
	inv.output, err = schema.Coerce(inv.raw, f.def.Output())
	if err != nil {
		return nil, fail(KindOutputMismatch, err)
	}
	return inv.output, nil
}

// normalizeProviderError makes sure the cause carries one of the provider
// failure kinds even when a provider returned a bare error.
func normalizeProviderError(p llm.Provider, err error) error {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	kind := llm.ErrProviderUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = llm.ErrProviderTimeout
	}
	return &llm.ProviderError{Provider: p.Name(), Kind: kind, Err: err}
}
