package datastructure

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/compactgraph/pkg"
	"github.com/lintang-b-s/compactgraph/pkg/util"
	"github.com/twpayne/go-polyline"
)

// WriteGraph persists the compact graph as bzip2-compressed text. edge
// geometry is stored as encoded polylines so the dominant payload stays
// small on disk.
func (g *CompactGraph) WriteGraph(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	defer bz.Close()

	w := bufio.NewWriter(bz)

	threeDim := 0
	if g.threeDim {
		threeDim = 1
	}
	fmt.Fprintf(w, "%d %d %d %d\n", len(g.towerLat), len(g.edges), len(g.restrictions), threeDim)

	for i := range g.towerLat {
		latF := strconv.FormatFloat(g.towerLat[i], 'f', -1, 64)
		lonF := strconv.FormatFloat(g.towerLon[i], 'f', -1, 64)
		if g.threeDim {
			eleF := strconv.FormatFloat(g.towerEle[i], 'f', -1, 64)
			fmt.Fprintf(w, "%s %s %s\n", latF, lonF, eleF)
		} else {
			fmt.Fprintf(w, "%s %s\n", latF, lonF)
		}
	}

	for _, e := range g.edges {
		distF := strconv.FormatFloat(e.DistanceMeter, 'f', -1, 64)
		fmt.Fprintf(w, "%d %d %s %d %d %d\n",
			e.From, e.To, distF, uint32(e.Flags), e.WayID, e.RouteHint)

		coords := make([][]float64, len(e.Geometry))
		for i, c := range e.Geometry {
			coords[i] = []float64{c.Lat, c.Lon}
		}
		fmt.Fprintf(w, "%s\n", string(polyline.EncodeCoords(coords)))
	}

	for _, tr := range g.restrictions {
		scope := tr.VehicleScope
		if scope == "" {
			scope = "-"
		}
		fmt.Fprintf(w, "%d %d %d %d %d %d %s %d",
			tr.FromWayID, tr.ToWayID, tr.FromEdge, tr.ToEdge, tr.ViaNode,
			tr.Kind, scope, len(tr.Except))
		for _, ex := range tr.Except {
			fmt.Fprintf(w, " %s", ex)
		}
		fmt.Fprintf(w, "\n")
	}

	return w.Flush()
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err == io.EOF && line != "" {
		// a final line without a trailing newline is still a full line
		err = nil
	}
	if err == io.EOF {
		return "", util.WrapErrorf(err, util.ErrBadParamInput,
			"graph file ends before all promised records were read")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}

// ReadGraph loads a graph previously written with WriteGraph.
func ReadGraph(filename string) (*CompactGraph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bz, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
	if err != nil {
		return nil, err
	}
	defer bz.Close()

	br := bufio.NewReader(bz)

	line, err := readLine(br)
	if err != nil {
		return nil, err
	}
	header := strings.Fields(line)
	if len(header) != 4 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
			"malformed graph header: %q", line)
	}
	numNodes, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, err
	}
	numEdges, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, err
	}
	numRestrictions, err := strconv.Atoi(header[2])
	if err != nil {
		return nil, err
	}
	threeDim := header[3] == "1"

	towerLat := make([]float64, numNodes)
	towerLon := make([]float64, numNodes)
	var towerEle []float64
	if threeDim {
		towerEle = make([]float64, numNodes)
	}
	for i := 0; i < numNodes; i++ {
		line, err = readLine(br)
		if err != nil {
			return nil, err
		}
		ff := strings.Fields(line)
		want := 2
		if threeDim {
			want = 3
		}
		if len(ff) != want {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"malformed node line: %q", line)
		}
		towerLat[i], err = strconv.ParseFloat(ff[0], 64)
		if err != nil {
			return nil, err
		}
		towerLon[i], err = strconv.ParseFloat(ff[1], 64)
		if err != nil {
			return nil, err
		}
		if threeDim {
			towerEle[i], err = strconv.ParseFloat(ff[2], 64)
			if err != nil {
				return nil, err
			}
		}
	}

	edges := make([]Edge, numEdges)
	for i := 0; i < numEdges; i++ {
		line, err = readLine(br)
		if err != nil {
			return nil, err
		}
		ff := strings.Fields(line)
		if len(ff) != 6 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"malformed edge line: %q", line)
		}
		from, err := strconv.ParseUint(ff[0], 10, 32)
		if err != nil {
			return nil, err
		}
		to, err := strconv.ParseUint(ff[1], 10, 32)
		if err != nil {
			return nil, err
		}
		dist, err := strconv.ParseFloat(ff[2], 64)
		if err != nil {
			return nil, err
		}
		flags, err := strconv.ParseUint(ff[3], 10, 32)
		if err != nil {
			return nil, err
		}
		wayID, err := strconv.ParseInt(ff[4], 10, 64)
		if err != nil {
			return nil, err
		}
		hint, err := strconv.ParseUint(ff[5], 10, 32)
		if err != nil {
			return nil, err
		}

		geomLine, err := readLine(br)
		if err != nil {
			return nil, err
		}
		var geometry []Coordinate
		if geomLine != "" {
			coords, _, err := polyline.DecodeCoords([]byte(geomLine))
			if err != nil {
				return nil, err
			}
			geometry = make([]Coordinate, len(coords))
			for j, c := range coords {
				geometry[j] = NewCoordinate(c[0], c[1])
			}
		}

		edges[i] = NewEdge(Index(from), Index(to), geometry, dist,
			pkg.AccessFlags(flags), wayID, uint32(hint))
	}

	restrictions := make([]TurnRestriction, numRestrictions)
	for i := 0; i < numRestrictions; i++ {
		line, err = readLine(br)
		if err != nil {
			return nil, err
		}
		ff := strings.Fields(line)
		if len(ff) < 8 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"malformed restriction line: %q", line)
		}
		fromWay, err := strconv.ParseInt(ff[0], 10, 64)
		if err != nil {
			return nil, err
		}
		toWay, err := strconv.ParseInt(ff[1], 10, 64)
		if err != nil {
			return nil, err
		}
		fromEdge, err := strconv.ParseUint(ff[2], 10, 32)
		if err != nil {
			return nil, err
		}
		toEdge, err := strconv.ParseUint(ff[3], 10, 32)
		if err != nil {
			return nil, err
		}
		via, err := strconv.ParseUint(ff[4], 10, 32)
		if err != nil {
			return nil, err
		}
		kind, err := strconv.ParseUint(ff[5], 10, 8)
		if err != nil {
			return nil, err
		}
		scope := ff[6]
		if scope == "-" {
			scope = ""
		}
		numExcept, err := strconv.Atoi(ff[7])
		if err != nil {
			return nil, err
		}
		if len(ff) != 8+numExcept {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"malformed restriction except list: %q", line)
		}
		var except []string
		if numExcept > 0 {
			except = ff[8:]
		}
		restrictions[i] = TurnRestriction{
			FromWayID:    fromWay,
			ToWayID:      toWay,
			FromEdge:     Index(fromEdge),
			ToEdge:       Index(toEdge),
			ViaNode:      Index(via),
			Kind:         pkg.RestrictionKind(kind),
			VehicleScope: scope,
			Except:       except,
		}
	}

	return NewCompactGraph(towerLat, towerLon, towerEle, threeDim, edges, restrictions), nil
}
