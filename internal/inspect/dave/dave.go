// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package dave parses DAVE grouped ASCII files, the plain-text exchange
// format used for reduced quasielastic spectra. A file declares the number
// of energy-transfer points and the number of momentum-transfer groups,
// lists both axes, and then carries one "intensity error" row per point for
// every group. Comment lines start with '#'.
package dave

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// microToMilli converts micro-eV, the unit DAVE files store energies in,
// to milli-eV, the unit downstream fitting works in.
const microToMilli = 1e-3

// Grouped holds one parsed DAVE grouped file: a shared energy axis X, a
// momentum-transfer value per group in Q, and per-group intensity and
// uncertainty rows in Y and E (len(Y) == len(Q), len(Y[i]) == len(X)).
type Grouped struct {
	Q     []float64
	X     []float64
	Y     [][]float64
	E     [][]float64
	XUnit string
}

// NumGroups returns the number of momentum-transfer groups.
func (g *Grouped) NumGroups() int { return len(g.Q) }

// QRange returns the first and last momentum-transfer values.
func (g *Grouped) QRange() (lo, hi float64) {
	if len(g.Q) == 0 {
		return 0, 0
	}
	return g.Q[0], g.Q[len(g.Q)-1]
}

// XRange returns the first and last energy-transfer values.
func (g *Grouped) XRange() (lo, hi float64) {
	if len(g.X) == 0 {
		return 0, 0
	}
	return g.X[0], g.X[len(g.X)-1]
}

// Parse reads a DAVE grouped file from r. When toMeV is true the energy
// axis is converted from micro-eV to milli-eV.
//
// Files may store the energy axis as bin boundaries instead of points; in
// that case every group carries one row less than the declared energy count
// and the axis is converted to points by averaging adjacent boundaries.
func Parse(r io.Reader, toMeV bool) (*Grouped, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	next := func() (string, bool) {
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return line, true
		}
		return "", false
	}

	readCount := func(what string) (int, error) {
		line, ok := next()
		if !ok {
			return 0, fmt.Errorf("unexpected end of file reading %s count", what)
		}
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid %s count %q", what, line)
		}
		return n, nil
	}

	readAxis := func(what string, n int) ([]float64, error) {
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			line, ok := next()
			if !ok {
				return nil, fmt.Errorf("unexpected end of file reading %s value %d of %d", what, i+1, n)
			}
			v, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q", what, line)
			}
			vals = append(vals, v)
		}
		return vals, nil
	}

	nx, err := readCount("energy")
	if err != nil {
		return nil, err
	}
	nq, err := readCount("group")
	if err != nil {
		return nil, err
	}
	x, err := readAxis("energy", nx)
	if err != nil {
		return nil, err
	}
	q, err := readAxis("group", nq)
	if err != nil {
		return nil, err
	}

	// All remaining non-comment lines are data rows. Their total decides
	// whether the energy axis holds points (nq*nx rows) or bin boundaries
	// (nq*(nx-1) rows).
	type row struct {
		y, e float64
	}
	var rows []row
	for {
		line, ok := next()
		if !ok {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			group := len(rows) / nx
			return nil, fmt.Errorf("group %d: row %d: expected 2 values, got %d", group, len(rows)%nx+1, len(fields))
		}
		y, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("group %d: invalid intensity %q", len(rows)/nx, fields[0])
		}
		e, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("group %d: invalid error %q", len(rows)/nx, fields[1])
		}
		rows = append(rows, row{y, e})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	perGroup := nx
	switch len(rows) {
	case nq * nx:
		// point data, nothing to do
	case nq * (nx - 1):
		perGroup = nx - 1
		x = midpoints(x)
	default:
		return nil, fmt.Errorf("expected %d or %d data rows (%d groups), got %d", nq*nx, nq*(nx-1), nq, len(rows))
	}

	g := &Grouped{
		Q:     q,
		X:     x,
		Y:     make([][]float64, nq),
		E:     make([][]float64, nq),
		XUnit: "ueV",
	}
	for i := 0; i < nq; i++ {
		g.Y[i] = make([]float64, perGroup)
		g.E[i] = make([]float64, perGroup)
		for j := 0; j < perGroup; j++ {
			g.Y[i][j] = rows[i*perGroup+j].y
			g.E[i][j] = rows[i*perGroup+j].e
		}
	}

	if toMeV {
		for i := range g.X {
			g.X[i] *= microToMilli
		}
		g.XUnit = "meV"
	}
	return g, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, toMeV bool) (*Grouped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, toMeV)
}

// midpoints converts bin boundaries to point data by averaging neighbours.
func midpoints(v []float64) []float64 {
	out := make([]float64, len(v)-1)
	for i := range out {
		out[i] = (v[i] + v[i+1]) / 2.0
	}
	return out
}
