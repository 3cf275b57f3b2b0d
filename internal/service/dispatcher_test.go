package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/jask/releasetour/internal/api"
)

func newTestDispatcher(r *fakeRunner) (*Dispatcher, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return NewDispatcher(r, NewVersionResolver("1.25"), clock, nil), clock
}

func TestSubmitRejectsBlankCodeWithoutNetwork(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{}
	d, _ := newTestDispatcher(r)

	for _, code := range []string{"", "   ", "\n\t\n"} {
		res, err := d.Submit(context.Background(), Submission{Code: code, SelectorVersion: "1.24"})
		require.Nil(t, res)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "code", ve.Field)
	}
	require.Empty(t, r.Requests())
}

func TestNewPayloadRejectsEmptyVersion(t *testing.T) {
	_, err := NewPayload("package main", "")
	require.True(t, IsValidation(err))
	_, err = NewPayload("package main", "  ")
	require.True(t, IsValidation(err))

	p, err := NewPayload("package main", "1.24")
	require.NoError(t, err)
	require.Equal(t, "1.24", p.Version())
	require.Equal(t, "package main", p.Code())
}

func TestSendZeroPayloadFailsLocally(t *testing.T) {
	r := &fakeRunner{}
	d, _ := newTestDispatcher(r)
	res := d.Send(context.Background(), Payload{})
	f, ok := res.(Failure)
	require.True(t, ok)
	require.True(t, IsValidation(f.Err))
	require.Empty(t, r.Requests())
}

func TestSubmitSuccess(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{resp: api.RunResponse{Output: "hello", UsedVersion: "1.24", DetectedVersion: "1.24", ExecutionTime: "15ms"}}
	d, clock := newTestDispatcher(r)
	r.onRun = func() { clock.Advance(120 * time.Millisecond) }

	res, err := d.Submit(context.Background(), Submission{Code: "package main", SelectorVersion: "1.24"})
	require.NoError(t, err)
	require.Equal(t, Success{
		Output:          "hello",
		UsedVersion:     "1.24",
		DetectedVersion: "1.24",
		ExecutionTime:   "15ms",
		RoundTrip:       120 * time.Millisecond,
	}, res)
	require.Equal(t, []api.RunRequest{{Code: "package main", Version: "1.24"}}, r.Requests())
}

func TestSubmitPrefersGoVersionAlias(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{resp: api.RunResponse{Output: "x", UsedVersion: "1.23", GoVersion: "1.24"}}
	d, _ := newTestDispatcher(r)
	res, err := d.Submit(context.Background(), Submission{Code: "package main"})
	require.NoError(t, err)
	require.Equal(t, "1.24", res.(Success).UsedVersion)
}

func TestSubmitEmptyOutputUsesSentinel(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{resp: api.RunResponse{}}
	d, _ := newTestDispatcher(r)
	res, err := d.Submit(context.Background(), Submission{Code: "package main"})
	require.NoError(t, err)
	s := res.(Success)
	require.Equal(t, NoOutput, s.Output)
	require.Empty(t, s.UsedVersion)
	require.Empty(t, s.ExecutionTime)
}

func TestSubmitWhitespaceOutputIsKept(t *testing.T) {
	t.Parallel()
	for _, out := range []string{"\n", "  ", "\t\n"} {
		r := &fakeRunner{resp: api.RunResponse{Output: out}}
		d, _ := newTestDispatcher(r)
		res, err := d.Submit(context.Background(), Submission{Code: "package main"})
		require.NoError(t, err)
		require.Equal(t, out, res.(Success).Output)
	}
}

func TestSubmitServiceErrorPairsPartialOutput(t *testing.T) {
	t.Parallel()
	r := &fakeRunner{resp: api.RunResponse{Output: "partial", Error: "boom"}}
	d, _ := newTestDispatcher(r)
	res, err := d.Submit(context.Background(), Submission{Code: "package main"})
	require.NoError(t, err)
	f, ok := res.(Failure)
	require.True(t, ok)
	require.Equal(t, "boom", f.ErrorMessage)
	require.Equal(t, "partial", f.PartialOutput)
	var ee *ExecutionError
	require.ErrorAs(t, f.Err, &ee)
}

func TestSubmitTransportFailureHasNoOutput(t *testing.T) {
	t.Parallel()
	boom := &api.StatusError{Op: "execution.run", Code: 502}
	r := &fakeRunner{err: boom, resp: api.RunResponse{Output: "ignored"}}
	d, _ := newTestDispatcher(r)

	res, err := d.Submit(context.Background(), Submission{Code: "package main"})
	require.NoError(t, err)
	f := res.(Failure)
	require.Empty(t, f.PartialOutput)
	require.Contains(t, f.ErrorMessage, "502")
	require.True(t, strings.HasPrefix(f.ErrorMessage, "execution request failed: "), f.ErrorMessage)
	require.NotContains(t, f.ErrorMessage, "unreachable")
	var te *TransportError
	require.ErrorAs(t, f.Err, &te)
	require.True(t, errors.Is(f.Err, boom))
	require.Len(t, r.Requests(), 1, "no retry")
}

func TestPrepareResolvesVersion(t *testing.T) {
	d, _ := newTestDispatcher(&fakeRunner{})
	p, err := d.Prepare(Submission{Code: "// Go 1.22 feature demo\npackage main", LessonFilePath: "/v/1.21/x.go"})
	require.NoError(t, err)
	require.Equal(t, "1.22", p.Version())

	p, err = d.Prepare(Submission{Code: "package main", LessonFilePath: "releases/v/1.21/x.go"})
	require.NoError(t, err)
	require.Equal(t, "1.21", p.Version())
}
