package ripconfig

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ripconfig.Error, got %T: %v", err, err)
	}
	return cfgErr.Kind
}

func lineOf(t *testing.T, err error) int {
	t.Helper()
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ripconfig.Error, got %T: %v", err, err)
	}
	return cfgErr.Line
}

func TestParseValidConfig(t *testing.T) {
	lines := []string{
		"router-id 1",
		"input-ports 2001, 2002",
		"outputs 3001-1-2, 3002-5-3",
	}

	cfg, err := Parse(lines)
	assert.NilError(t, err)
	assert.Equal(t, cfg.RouterID, uint16(1))

	if diff := cmp.Diff([]uint16{2001, 2002}, cfg.InputPorts); diff != "" {
		t.Fatalf("input ports mismatch (-want +got):\n%s", diff)
	}

	want := map[uint16]Neighbor{
		2: {OutgoingPort: 3001, LinkCost: 1},
		3: {OutgoingPort: 3002, LinkCost: 5},
	}
	if diff := cmp.Diff(want, cfg.Neighbors); diff != "" {
		t.Fatalf("neighbors mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTooFewLines(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 2001"})
	assert.ErrorContains(t, err, "expected 3 lines")
	assert.Equal(t, kindOf(t, err), ConfigSyntax)
}

func TestParseRouterIDMissingPrefix(t *testing.T) {
	_, err := Parse([]string{"id 1", "input-ports 2001", "outputs 3001-1-2"})
	assert.Equal(t, kindOf(t, err), ConfigSyntax)
	assert.Equal(t, lineOf(t, err), 1)
}

func TestParseRouterIDOutOfRange(t *testing.T) {
	_, err := Parse([]string{"router-id 70000", "input-ports 2001", "outputs 3001-1-2"})
	assert.Equal(t, kindOf(t, err), ConfigRange)
	assert.Equal(t, lineOf(t, err), 1)
}

func TestParseRouterIDNotInteger(t *testing.T) {
	_, err := Parse([]string{"router-id abc", "input-ports 2001", "outputs 3001-1-2"})
	assert.Equal(t, kindOf(t, err), ConfigSyntax)
}

func TestParseInputPortOutOfRange(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 80", "outputs 3001-1-2"})
	assert.Equal(t, kindOf(t, err), ConfigRange)
	assert.Equal(t, lineOf(t, err), 2)
}

func TestParseDuplicateInputPort(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 2001, 2001", "outputs 3001-1-2"})
	assert.Equal(t, kindOf(t, err), DuplicatePort)
	assert.Equal(t, lineOf(t, err), 2)
}

func TestParseOutputsWrongShape(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 2001", "outputs 3001-1"})
	assert.Equal(t, kindOf(t, err), ConfigSyntax)
	assert.Equal(t, lineOf(t, err), 3)
}

func TestParseOutputsMetricOutOfRange(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 2001", "outputs 3001-16-2"})
	assert.Equal(t, kindOf(t, err), ConfigRange)
}

func TestParseOutputsDuplicatePort(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 2001", "outputs 3001-1-2, 3001-2-3"})
	assert.Equal(t, kindOf(t, err), DuplicatePort)
	assert.Equal(t, lineOf(t, err), 3)
}

func TestParseOutputsRouterIDOutOfRange(t *testing.T) {
	_, err := Parse([]string{"router-id 1", "input-ports 2001", "outputs 3001-1-70000"})
	assert.Equal(t, kindOf(t, err), ConfigRange)
}
