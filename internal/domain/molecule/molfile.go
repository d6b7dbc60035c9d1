package molecule

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// SD data item names carrying resolved stereo descriptors. The atom item holds
// space separated "index:descriptor" tokens, the bond item "a-b:descriptor",
// both with 1-based atom numbers as in the connection table.
const (
	PropAtomCIP = "CIP"
	PropBondCIP = "BOND_CIP"
)

const (
	recordEnd  = "$$$$"
	blockEnd   = "M  END"
	maxLineLen = 1 << 20
)

// ─────────────────────────────────────────────────────────────────────────────
// Reader
// ─────────────────────────────────────────────────────────────────────────────

// Reader reads V2000 connection tables from an MDL molfile or SD file, one
// record per call to Next.
type Reader struct {
	sc   *bufio.Scanner
	line int
	done bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	return &Reader{sc: sc}
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Next() (*Molecule, error) {
	if r.done {
		return nil, io.EOF
	}
	name, ok, err := r.header()
	if err != nil {
		return nil, err
	}
	if !ok {
		r.done = true
		return nil, io.EOF
	}

	m := &Molecule{Name: name}
	if err := r.connectionTable(m); err != nil {
		return nil, err
	}
	if err := r.dataItems(m); err != nil {
		return nil, err
	}
	if err := applyCIP(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Reader) scan() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	r.line++
	return strings.TrimRight(r.sc.Text(), "\r"), true
}

func (r *Reader) fail(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeMoleculeParsingFailed, fmt.Sprintf(format, args...)).
		WithDetail(fmt.Sprintf("line %d", r.line))
}

// header consumes the three header lines; the first one is the name and may
// be blank. ok is false when only blank lines remain.
func (r *Reader) header() (string, bool, error) {
	var lines []string
	for len(lines) < 3 {
		l, more := r.scan()
		if !more {
			if err := r.sc.Err(); err != nil {
				return "", false, errors.Wrap(err, errors.ErrCodeMoleculeParsingFailed, "read molfile")
			}
			if strings.TrimSpace(strings.Join(lines, "")) == "" {
				return "", false, nil
			}
			return "", false, r.fail("truncated header")
		}
		lines = append(lines, l)
	}
	return strings.TrimSpace(lines[0]), true, nil
}

func (r *Reader) connectionTable(m *Molecule) error {
	counts, ok := r.scan()
	if !ok {
		return r.fail("missing counts line")
	}
	if strings.Contains(counts, "V3000") {
		return errors.New(errors.ErrCodeMoleculeInvalidFormat, "V3000 connection tables are not supported").
			WithDetail(fmt.Sprintf("line %d", r.line))
	}
	nAtoms, err1 := intField(counts, 0, 3)
	nBonds, err2 := intField(counts, 3, 6)
	if err1 != nil || err2 != nil || nAtoms < 0 || nBonds < 0 {
		return r.fail("malformed counts line %q", counts)
	}

	m.Atoms = make([]Atom, 0, nAtoms)
	for i := 0; i < nAtoms; i++ {
		l, ok := r.scan()
		if !ok {
			return r.fail("expected %d atoms, found %d", nAtoms, i)
		}
		a, err := r.atom(l)
		if err != nil {
			return err
		}
		m.Atoms = append(m.Atoms, a)
	}

	m.Bonds = make([]Bond, 0, nBonds)
	for i := 0; i < nBonds; i++ {
		l, ok := r.scan()
		if !ok {
			return r.fail("expected %d bonds, found %d", nBonds, i)
		}
		b, err := r.bond(l, nAtoms)
		if err != nil {
			return err
		}
		m.Bonds = append(m.Bonds, b)
	}

	return r.properties(m)
}

func (r *Reader) atom(l string) (Atom, error) {
	if len(l) < 34 {
		return Atom{}, r.fail("atom line too short")
	}
	x, errX := floatField(l, 0, 10)
	y, errY := floatField(l, 10, 20)
	z, errZ := floatField(l, 20, 30)
	if errX != nil || errY != nil || errZ != nil {
		return Atom{}, r.fail("malformed atom coordinates")
	}
	a := Atom{Symbol: normalizeSymbol(field(l, 31, 34)), X: x, Y: y, Z: z}
	if a.Symbol == "" {
		return Atom{}, r.fail("atom has no symbol")
	}

	if code, err := intField(l, 36, 39); err == nil && code >= 1 && code <= 7 && code != 4 {
		a.Charge = 4 - code
	}
	// Parity 1 and 2 encode atom-numbering order, not CIP labels; only an
	// explicit CIP data item resolves them.
	if p, err := intField(l, 39, 42); err == nil && p >= 1 && p <= 3 {
		a.Stereo = matching.StereoEither
	}
	return a, nil
}

func normalizeSymbol(s string) string {
	switch s {
	case "A", "R#":
		return "R"
	case "*", "Q", "L", "LP":
		return "*"
	}
	return s
}

func bondOrder(code int) (matching.BondOrder, bool) {
	switch code {
	case 1, 2, 3, 4:
		return matching.BondOrder(code), true
	case 5, 6, 7, 8:
		// Query bond types (single/double, single/aromatic, double/aromatic)
		// collapse to a wildcard.
		return matching.BondAny, true
	}
	return matching.BondUnknown, false
}

func (r *Reader) bond(l string, nAtoms int) (Bond, error) {
	if len(l) < 9 {
		return Bond{}, r.fail("bond line too short")
	}
	from, err1 := intField(l, 0, 3)
	to, err2 := intField(l, 3, 6)
	code, err3 := intField(l, 6, 9)
	if err1 != nil || err2 != nil || err3 != nil {
		return Bond{}, r.fail("malformed bond line %q", l)
	}
	if from < 1 || from > nAtoms || to < 1 || to > nAtoms {
		return Bond{}, r.fail("bond references atom outside 1..%d", nAtoms)
	}
	order, ok := bondOrder(code)
	if !ok {
		return Bond{}, r.fail("unsupported bond type %d", code)
	}
	b := Bond{From: from - 1, To: to - 1, Order: order}
	if st, err := intField(l, 9, 12); err == nil && st == 3 && order == matching.BondDouble {
		b.Stereo = matching.StereoEither
	}
	return b, nil
}

// properties handles the "M  " block up to and including M  END.
func (r *Reader) properties(m *Molecule) error {
	for {
		l, ok := r.scan()
		if !ok {
			return r.fail("missing %q", blockEnd)
		}
		switch {
		case strings.HasPrefix(l, blockEnd):
			return nil
		case strings.HasPrefix(l, "M  CHG"):
			err := r.pairs(l, len(m.Atoms), func(atom, v int) { m.Atoms[atom].Charge = v })
			if err != nil {
				return err
			}
		case strings.HasPrefix(l, "M  RGP"):
			err := r.pairs(l, len(m.Atoms), func(atom, v int) { m.Atoms[atom].Symbol = "R" + strconv.Itoa(v) })
			if err != nil {
				return err
			}
		case l == recordEnd:
			return r.fail("record ended before %q", blockEnd)
		}
	}
}

// pairs decodes "M  XXXnn8 aaa vvv ..." property lines.
func (r *Reader) pairs(l string, nAtoms int, set func(atom, value int)) error {
	fields := strings.Fields(l[6:])
	if len(fields) == 0 {
		return r.fail("empty property line")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || len(fields) < 1+2*n {
		return r.fail("malformed property line %q", l)
	}
	for i := 0; i < n; i++ {
		atom, err1 := strconv.Atoi(fields[1+2*i])
		v, err2 := strconv.Atoi(fields[2+2*i])
		if err1 != nil || err2 != nil || atom < 1 || atom > nAtoms {
			return r.fail("malformed property entry in %q", l)
		}
		set(atom-1, v)
	}
	return nil
}

// dataItems reads SD "> <NAME>" blocks until $$$$ or end of input.
func (r *Reader) dataItems(m *Molecule) error {
	var key string
	var value []string
	flush := func() {
		if key != "" {
			if m.Properties == nil {
				m.Properties = make(map[string]string)
			}
			m.Properties[key] = strings.Join(value, "\n")
		}
		key, value = "", nil
	}

	for {
		l, ok := r.scan()
		if !ok {
			flush()
			r.done = true
			return r.sc.Err()
		}
		switch {
		case l == recordEnd:
			flush()
			return nil
		case strings.HasPrefix(l, ">"):
			flush()
			start, end := strings.Index(l, "<"), strings.LastIndex(l, ">")
			if start < 0 || end <= start {
				return r.fail("malformed data header %q", l)
			}
			key = l[start+1 : end]
		case strings.TrimSpace(l) == "":
			flush()
		case key != "":
			value = append(value, l)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Stereo data items
// ─────────────────────────────────────────────────────────────────────────────

func applyCIP(m *Molecule) error {
	if v, ok := m.Properties[PropAtomCIP]; ok {
		for _, tok := range strings.Fields(v) {
			idx, desc, err := splitCIP(tok)
			if err != nil {
				return err
			}
			atom, err := strconv.Atoi(idx)
			if err != nil || atom < 1 || atom > len(m.Atoms) {
				return cipError("atom reference %q out of range", tok)
			}
			m.Atoms[atom-1].Stereo = desc
		}
	}
	if v, ok := m.Properties[PropBondCIP]; ok {
		for _, tok := range strings.Fields(v) {
			ref, desc, err := splitCIP(tok)
			if err != nil {
				return err
			}
			a, b, found := strings.Cut(ref, "-")
			i, errA := strconv.Atoi(a)
			j, errB := strconv.Atoi(b)
			if !found || errA != nil || errB != nil {
				return cipError("malformed bond reference %q", tok)
			}
			k := -1
			for n, bond := range m.Bonds {
				if bondKey(bond.From, bond.To) == bondKey(i-1, j-1) {
					k = n
					break
				}
			}
			if k < 0 {
				return cipError("no bond between atoms %d and %d", i, j)
			}
			m.Bonds[k].Stereo = desc
		}
	}
	return nil
}

func splitCIP(tok string) (string, matching.StereoDescriptor, error) {
	ref, name, ok := strings.Cut(tok, ":")
	if !ok {
		return "", matching.StereoNone, cipError("malformed stereo token %q", tok)
	}
	desc, err := matching.ParseStereo(name)
	if err != nil {
		return "", matching.StereoNone, cipError("%s", err.Error())
	}
	return ref, desc, nil
}

func cipError(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeMoleculeParsingFailed, fmt.Sprintf(format, args...)).
		WithDetail("data item")
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience entry points
// ─────────────────────────────────────────────────────────────────────────────

// ParseMolfile reads exactly the first record of r.
func ParseMolfile(r io.Reader) (*Molecule, error) {
	m, err := NewReader(r).Next()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidFormat, "empty molfile")
	}
	return m, err
}

// ParseMolString is ParseMolfile over an in-memory string.
func ParseMolString(s string) (*Molecule, error) {
	return ParseMolfile(strings.NewReader(s))
}

// ParseSDF reads every record of an SD file.
func ParseSDF(r io.Reader) ([]*Molecule, error) {
	rd := NewReader(r)
	var out []*Molecule
	for {
		m, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixed-column helpers
// ─────────────────────────────────────────────────────────────────────────────

func field(l string, from, to int) string {
	if from >= len(l) {
		return ""
	}
	if to > len(l) {
		to = len(l)
	}
	return strings.TrimSpace(l[from:to])
}

func intField(l string, from, to int) (int, error) {
	s := field(l, from, to)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func floatField(l string, from, to int) (float64, error) {
	s := field(l, from, to)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

//Personal.AI order the ending
