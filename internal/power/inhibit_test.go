package power

import (
	"errors"
	"io"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInhibitor struct {
	name       string
	inhibits   []Assertion
	releases   int
	inhibitErr error
	releaseErr error
}

func (c *countingInhibitor) Name() string { return c.name }

func (c *countingInhibitor) Inhibit(kind Assertion) error {
	c.inhibits = append(c.inhibits, kind)
	return c.inhibitErr
}

func (c *countingInhibitor) Release() error {
	c.releases++
	return c.releaseErr
}

var quiet = &log.Logger{Writer: &log.IOWriter{Writer: io.Discard}}

func fixed(b Inhibitor) candidate {
	return candidate{name: b.Name(), new: func() (Inhibitor, error) { return b, nil }}
}

func unavailable(name string) candidate {
	return candidate{name: name, new: func() (Inhibitor, error) { return nil, ErrInhibitorUnavailable }}
}

func TestManager_TakeTwiceAcquiresOnce(t *testing.T) {
	b := &countingInhibitor{name: "fake"}
	m := newManager([]candidate{fixed(b)}, NoIdleSleep, quiet)

	require.NoError(t, m.Take())
	require.NoError(t, m.Take())
	assert.Equal(t, []Assertion{NoIdleSleep}, b.inhibits)
	assert.Equal(t, NoIdleSleep, m.Held())
}

func TestManager_ReleaseTwiceReleasesOnce(t *testing.T) {
	b := &countingInhibitor{name: "fake"}
	m := newManager([]candidate{fixed(b)}, NoIdleSleep, quiet)

	require.NoError(t, m.Take())
	require.NoError(t, m.Release())
	require.NoError(t, m.Release())
	assert.Equal(t, 1, b.releases)
	assert.Empty(t, m.Held())
}

func TestManager_ReleaseWithoutTakeIsNoop(t *testing.T) {
	b := &countingInhibitor{name: "fake"}
	m := newManager([]candidate{fixed(b)}, NoIdleSleep, quiet)

	require.NoError(t, m.Release())
	assert.Zero(t, b.releases)
}

func TestManager_ChangingKindReleasesFirst(t *testing.T) {
	b := &countingInhibitor{name: "fake"}
	m := newManager([]candidate{fixed(b)}, NoIdleSleep, quiet)

	require.NoError(t, m.TakeKind(NoIdleSleep))
	require.NoError(t, m.TakeKind(NoDisplaySleep))
	assert.Equal(t, []Assertion{NoIdleSleep, NoDisplaySleep}, b.inhibits)
	assert.Equal(t, 1, b.releases)
	assert.Equal(t, NoDisplaySleep, m.Held())
}

func TestManager_FallsBackInPriorityOrder(t *testing.T) {
	second := &countingInhibitor{name: "second"}
	third := &countingInhibitor{name: "third"}
	m := newManager([]candidate{unavailable("first"), fixed(second), fixed(third)}, NoIdleSleep, quiet)

	assert.Equal(t, "second", m.Backend())
	require.NoError(t, m.Take())
	assert.Len(t, second.inhibits, 1)
	assert.Empty(t, third.inhibits)
}

func TestManager_NoBackendDegradesToNoop(t *testing.T) {
	m := newManager([]candidate{unavailable("a"), unavailable("b")}, NoIdleSleep, quiet)
	assert.Equal(t, "none", m.Backend())
	require.NoError(t, m.Take())
	require.NoError(t, m.Release())

	assert.Equal(t, "none", newManager(nil, "", quiet).Backend())
}

func TestManager_BackendFailureIsTerminal(t *testing.T) {
	boom := errors.New("boom")
	b := &countingInhibitor{name: "fake", inhibitErr: boom}
	m := newManager([]candidate{fixed(b)}, NoIdleSleep, quiet)

	assert.ErrorIs(t, m.Take(), boom)
	b.inhibitErr = nil
	assert.NoError(t, m.Take())
	assert.NoError(t, m.Release())
	assert.Len(t, b.inhibits, 1)
	assert.Zero(t, b.releases)
	assert.Empty(t, m.Held())
}

func TestManager_ReleaseFailureIsTerminal(t *testing.T) {
	boom := errors.New("boom")
	b := &countingInhibitor{name: "fake", releaseErr: boom}
	m := newManager([]candidate{fixed(b)}, NoIdleSleep, quiet)

	require.NoError(t, m.Take())
	assert.ErrorIs(t, m.Release(), boom)
	assert.NoError(t, m.Take())
	assert.Len(t, b.inhibits, 1)
}
