// Package ripconfig loads the line-oriented router configuration file:
// a fixed three-line grammar giving the router identifier, the set of
// input UDP ports, and the neighbor table, each line validated against
// its own range checks and against duplicate ports within that line.
package ripconfig

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	minRouterID = 1
	maxRouterID = 64000

	minPort = 1024
	maxPort = 64000

	minMetric = 1
	maxMetric = 15
)

// Kind classifies a configuration error. ConfigSyntax and ConfigRange
// are both fatal at startup, before any socket is bound; DuplicatePort
// is called out separately since it is a distinct mistake from an
// out-of-range value.
type Kind int

const (
	ConfigSyntax Kind = iota
	ConfigRange
	DuplicatePort
)

func (k Kind) String() string {
	switch k {
	case ConfigSyntax:
		return "ConfigSyntax"
	case ConfigRange:
		return "ConfigRange"
	case DuplicatePort:
		return "DuplicatePort"
	default:
		return "Unknown"
	}
}

// Error reports which line of the configuration file failed and why.
type Error struct {
	Kind Kind
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return "ripconfig: line " + strconv.Itoa(e.Line) + ": " + e.Msg
}

func newErr(kind Kind, line int, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Line: line, Msg: msg})
}

// Neighbor is the immutable (outgoing_port, link_cost) pair a configured
// neighbor is reached through.
type Neighbor struct {
	OutgoingPort uint16
	LinkCost     uint8
}

// Config is the fully validated result of parsing a configuration file.
type Config struct {
	RouterID   uint16
	InputPorts []uint16
	Neighbors  map[uint16]Neighbor // neighbor_id -> Neighbor
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ripconfig: opening %s", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "ripconfig: reading %s", path)
	}

	return Parse(lines)
}

// Parse validates an in-memory copy of the three required lines. It is
// split out from Load so tests can exercise the grammar without a
// filesystem.
func Parse(lines []string) (*Config, error) {
	if len(lines) < 3 {
		return nil, newErr(ConfigSyntax, len(lines)+1, "expected 3 lines (router-id, input-ports, outputs)")
	}

	routerID, err := parseRouterID(lines[0])
	if err != nil {
		return nil, err
	}

	inputPorts, err := parseInputPorts(lines[1])
	if err != nil {
		return nil, err
	}

	neighbors, err := parseOutputs(lines[2])
	if err != nil {
		return nil, err
	}

	return &Config{RouterID: routerID, InputPorts: inputPorts, Neighbors: neighbors}, nil
}

func parseRouterID(line string) (uint16, error) {
	const prefix = "router-id "
	if !strings.HasPrefix(line, prefix) {
		return 0, newErr(ConfigSyntax, 1, "expected line to start with 'router-id '")
	}

	value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if value == "" {
		return 0, newErr(ConfigSyntax, 1, "no router id specified")
	}

	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, newErr(ConfigSyntax, 1, "router id '"+value+"' is not an integer")
	}

	if id < minRouterID || id > maxRouterID {
		return 0, newErr(ConfigRange, 1, "router id out of range [1,64000]")
	}

	return uint16(id), nil
}

func parseInputPorts(line string) ([]uint16, error) {
	const prefix = "input-ports "
	if !strings.HasPrefix(line, prefix) {
		return nil, newErr(ConfigSyntax, 2, "expected line to start with 'input-ports '")
	}

	value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if value == "" {
		return nil, newErr(ConfigSyntax, 2, "no ports specified")
	}

	seen := map[uint16]bool{}
	var ports []uint16

	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, newErr(ConfigSyntax, 2, "port '"+tok+"' is not an integer")
		}

		if n < minPort || n > maxPort {
			return nil, newErr(ConfigRange, 2, "port "+tok+" out of range [1024,64000]")
		}

		port := uint16(n)
		if seen[port] {
			return nil, newErr(DuplicatePort, 2, "port "+tok+" repeated in input-ports")
		}
		seen[port] = true

		ports = append(ports, port)
	}

	return ports, nil
}

func parseOutputs(line string) (map[uint16]Neighbor, error) {
	const prefix = "outputs "
	if !strings.HasPrefix(line, prefix) {
		return nil, newErr(ConfigSyntax, 3, "expected line to start with 'outputs '")
	}

	value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if value == "" {
		return nil, newErr(ConfigSyntax, 3, "no outputs specified")
	}

	seenPorts := map[uint16]bool{}
	neighbors := map[uint16]Neighbor{}

	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)

		parts := strings.Split(tok, "-")
		if len(parts) != 3 {
			return nil, newErr(ConfigSyntax, 3, "output '"+tok+"' must be 'port-metric-routerId'")
		}

		port, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, newErr(ConfigSyntax, 3, "output '"+tok+"' has a non-integer port")
		}
		metric, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, newErr(ConfigSyntax, 3, "output '"+tok+"' has a non-integer metric")
		}
		routerID, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, newErr(ConfigSyntax, 3, "output '"+tok+"' has a non-integer router id")
		}

		if port < minPort || port > maxPort {
			return nil, newErr(ConfigRange, 3, "output port "+parts[0]+" out of range [1024,64000]")
		}
		if metric < minMetric || metric > maxMetric {
			return nil, newErr(ConfigRange, 3, "output metric "+parts[1]+" out of range [1,15]")
		}
		if routerID < minRouterID || routerID > maxRouterID {
			return nil, newErr(ConfigRange, 3, "output router id "+parts[2]+" out of range [1,64000]")
		}

		p := uint16(port)
		if seenPorts[p] {
			return nil, newErr(DuplicatePort, 3, "output port "+parts[0]+" repeated in outputs")
		}
		seenPorts[p] = true

		neighbors[uint16(routerID)] = Neighbor{OutgoingPort: p, LinkCost: uint8(metric)}
	}

	return neighbors, nil
}
