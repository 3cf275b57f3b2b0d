package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jask/releasetour/internal/api"
	"github.com/jask/releasetour/internal/logger"
)

// NoOutput replaces an empty output of a successful run.
const NoOutput = "Execution finished (no output)"

// Runner executes code remotely.
type Runner interface {
	Run(ctx context.Context, req api.RunRequest) (api.RunResponse, error)
}

// Submission is the user-side input of a run.
type Submission struct {
	Code            string
	SelectorVersion string
	LessonFilePath  string
}

// Payload is a validated execution request. Build it with NewPayload.
type Payload struct {
	code    string
	version string
}

// NewPayload rejects blank code and an empty version.
func NewPayload(code, version string) (Payload, error) {
	if strings.TrimSpace(code) == "" {
		return Payload{}, &ValidationError{Field: "code", Reason: "nothing to run"}
	}
	if strings.TrimSpace(version) == "" {
		return Payload{}, &ValidationError{Field: "version", Reason: "must not be empty"}
	}
	return Payload{code: code, version: strings.TrimSpace(version)}, nil
}

func (p Payload) Code() string    { return p.code }
func (p Payload) Version() string { return p.version }

// ExecutionResult is either Success or Failure.
type ExecutionResult interface {
	isExecutionResult()
}

type Success struct {
	Output          string
	UsedVersion     string
	DetectedVersion string
	ExecutionTime   string
	RoundTrip       time.Duration
}

// Failure always carries the service's partial output next to its error message.
type Failure struct {
	ErrorMessage  string
	PartialOutput string
	Err           error
}

func (Success) isExecutionResult() {}
func (Failure) isExecutionResult() {}

// Dispatcher validates submissions and interprets execution responses.
type Dispatcher struct {
	runner   Runner
	resolver *VersionResolver
	clock    clockwork.Clock
	log      *logger.Logger
}

func NewDispatcher(runner Runner, resolver *VersionResolver, clock clockwork.Clock, log *logger.Logger) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{runner: runner, resolver: resolver, clock: clock, log: log.With("component", "dispatcher")}
}

// Prepare validates the code and resolves the target version. No I/O.
func (d *Dispatcher) Prepare(sub Submission) (Payload, error) {
	if strings.TrimSpace(sub.Code) == "" {
		return Payload{}, &ValidationError{Field: "code", Reason: "nothing to run"}
	}
	version, source := d.resolver.ResolveSource(ResolveInput{
		SelectorVersion: sub.SelectorVersion,
		Code:            sub.Code,
		LessonFilePath:  sub.LessonFilePath,
	})
	d.log.Debug("version resolved", "version", version, "source", string(source))
	return NewPayload(sub.Code, version)
}

// Send makes exactly one execution call and never retries.
func (d *Dispatcher) Send(ctx context.Context, p Payload) ExecutionResult {
	if p.version == "" {
		err := &ValidationError{Field: "version", Reason: "must not be empty"}
		return Failure{ErrorMessage: err.Error(), Err: err}
	}
	start := d.clock.Now()
	resp, err := d.runner.Run(ctx, api.RunRequest{Code: p.code, Version: p.version})
	elapsed := d.clock.Since(start)
	if err != nil {
		terr := &TransportError{Cause: err}
		d.log.Warn("run failed", "version", p.version, "error", err)
		return Failure{ErrorMessage: terr.Error(), Err: terr}
	}
	if resp.Error != "" {
		d.log.Info("run reported error", "version", p.version, "elapsed", elapsed.String())
		return Failure{
			ErrorMessage:  resp.Error,
			PartialOutput: resp.Output,
			Err:           &ExecutionError{Message: resp.Error},
		}
	}
	out := resp.Output
	if out == "" {
		out = NoOutput
	}
	d.log.Info("run finished", "version", p.version, "used_version", resp.RunVersion(), "elapsed", elapsed.String())
	return Success{
		Output:          out,
		UsedVersion:     resp.RunVersion(),
		DetectedVersion: resp.DetectedVersion,
		ExecutionTime:   resp.ExecutionTime,
		RoundTrip:       elapsed,
	}
}

// Submit is Prepare followed by Send. Validation failures are returned as
// errors and make no network call.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission) (ExecutionResult, error) {
	p, err := d.Prepare(sub)
	if err != nil {
		return nil, err
	}
	return d.Send(ctx, p), nil
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
