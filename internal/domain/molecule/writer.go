package molecule

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/pkg/errors"
)

const propsPerLine = 8

// WriteMolfile encodes m as a single V2000 SD record. Stereo descriptors are
// emitted as CIP data items so they survive a round trip through ParseMolfile.
func WriteMolfile(w io.Writer, m *Molecule) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n  MolMatch\n\n", m.Name)
	fmt.Fprintf(bw, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(m.Atoms), len(m.Bonds))

	var charges, rgroups [][2]int
	var atomCIP, bondCIP []string
	for i, a := range m.Atoms {
		symbol, group, err := encodeSymbol(a.Symbol)
		if err != nil {
			return err
		}
		if group > 0 {
			rgroups = append(rgroups, [2]int{i + 1, group})
		}
		if a.Charge != 0 {
			charges = append(charges, [2]int{i + 1, a.Charge})
		}
		parity := 0
		if a.Stereo != matching.StereoNone {
			parity = 3
			atomCIP = append(atomCIP, fmt.Sprintf("%d:%s", i+1, a.Stereo))
		}
		fmt.Fprintf(bw, "%10.4f%10.4f%10.4f %-3s 0  0%3d  0  0  0  0  0  0  0  0  0\n", a.X, a.Y, a.Z, symbol, parity)
	}
	for _, b := range m.Bonds {
		stereo := 0
		if b.Stereo != matching.StereoNone {
			if b.Stereo == matching.StereoEither && b.Order == matching.BondDouble {
				stereo = 3
			}
			bondCIP = append(bondCIP, fmt.Sprintf("%d-%d:%s", b.From+1, b.To+1, b.Stereo))
		}
		fmt.Fprintf(bw, "%3d%3d%3d%3d\n", b.From+1, b.To+1, encodeBondOrder(b.Order), stereo)
	}
	writePairs(bw, "CHG", charges)
	writePairs(bw, "RGP", rgroups)
	bw.WriteString(blockEnd + "\n")

	keys := make([]string, 0, len(m.Properties))
	for k := range m.Properties {
		if k != PropAtomCIP && k != PropBondCIP {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(bw, "> <%s>\n%s\n\n", k, m.Properties[k])
	}
	if len(atomCIP) > 0 {
		fmt.Fprintf(bw, "> <%s>\n%s\n\n", PropAtomCIP, strings.Join(atomCIP, " "))
	}
	if len(bondCIP) > 0 {
		fmt.Fprintf(bw, "> <%s>\n%s\n\n", PropBondCIP, strings.Join(bondCIP, " "))
	}
	bw.WriteString(recordEnd + "\n")
	return bw.Flush()
}

// MarshalMolfile is WriteMolfile into a byte slice.
func MarshalMolfile(m *Molecule) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteMolfile(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeSymbol maps generic labels back to molfile tokens. Numbered R-groups
// become "R#" with the group number carried by an M  RGP line.
func encodeSymbol(s string) (string, int, error) {
	if s == "R" {
		return "A", 0, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(s, "R")); err == nil && strings.HasPrefix(s, "R") && n > 0 {
		return "R#", n, nil
	}
	if len(s) > 3 {
		return "", 0, errors.Newf(errors.ErrCodeMoleculeInvalidFormat, "label %q does not fit a molfile atom block", s)
	}
	return s, 0, nil
}

func encodeBondOrder(o matching.BondOrder) int {
	if o == matching.BondAny {
		return 8
	}
	return int(o)
}

func writePairs(w *bufio.Writer, tag string, pairs [][2]int) {
	for start := 0; start < len(pairs); start += propsPerLine {
		end := start + propsPerLine
		if end > len(pairs) {
			end = len(pairs)
		}
		fmt.Fprintf(w, "M  %s%3d", tag, end-start)
		for _, p := range pairs[start:end] {
			fmt.Fprintf(w, " %3d %3d", p[0], p[1])
		}
		w.WriteString("\n")
	}
}

//Personal.AI order the ending
