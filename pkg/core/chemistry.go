// Package core provides chemistry calculations for molecular formulas
package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Element stores the atomic number and standard atomic weight of an element.
type Element struct {
	Z      int
	Weight float64
}

// Elements maps element symbols to atomic number and standard atomic weight.
// D and T are accepted for the hydrogen isotopes used in labelled compounds.
var Elements = map[string]Element{
	"H": {1, 1.008}, "D": {1, 2.014}, "T": {1, 3.016}, "He": {2, 4.0026},
	"Li": {3, 6.94}, "Be": {4, 9.0122}, "B": {5, 10.81}, "C": {6, 12.011},
	"N": {7, 14.007}, "O": {8, 15.999}, "F": {9, 18.998}, "Ne": {10, 20.180},
	"Na": {11, 22.990}, "Mg": {12, 24.305}, "Al": {13, 26.982}, "Si": {14, 28.085},
	"P": {15, 30.974}, "S": {16, 32.06}, "Cl": {17, 35.45}, "Ar": {18, 39.948},
	"K": {19, 39.098}, "Ca": {20, 40.078}, "Sc": {21, 44.956}, "Ti": {22, 47.867},
	"V": {23, 50.942}, "Cr": {24, 51.996}, "Mn": {25, 54.938}, "Fe": {26, 55.845},
	"Co": {27, 58.933}, "Ni": {28, 58.693}, "Cu": {29, 63.546}, "Zn": {30, 65.38},
	"Ga": {31, 69.723}, "Ge": {32, 72.630}, "As": {33, 74.922}, "Se": {34, 78.971},
	"Br": {35, 79.904}, "Kr": {36, 83.798}, "Rb": {37, 85.468}, "Sr": {38, 87.62},
	"Y": {39, 88.906}, "Zr": {40, 91.224}, "Nb": {41, 92.906}, "Mo": {42, 95.95},
	"Tc": {43, 98}, "Ru": {44, 101.07}, "Rh": {45, 102.91}, "Pd": {46, 106.42},
	"Ag": {47, 107.87}, "Cd": {48, 112.41}, "In": {49, 114.82}, "Sn": {50, 118.71},
	"Sb": {51, 121.76}, "Te": {52, 127.60}, "I": {53, 126.90}, "Xe": {54, 131.29},
	"Cs": {55, 132.91}, "Ba": {56, 137.33}, "La": {57, 138.91}, "Ce": {58, 140.12},
	"Pr": {59, 140.91}, "Nd": {60, 144.24}, "Pm": {61, 145}, "Sm": {62, 150.36},
	"Eu": {63, 151.96}, "Gd": {64, 157.25}, "Tb": {65, 158.93}, "Dy": {66, 162.50},
	"Ho": {67, 164.93}, "Er": {68, 167.26}, "Tm": {69, 168.93}, "Yb": {70, 173.05},
	"Lu": {71, 174.97}, "Hf": {72, 178.49}, "Ta": {73, 180.95}, "W": {74, 183.84},
	"Re": {75, 186.21}, "Os": {76, 190.23}, "Ir": {77, 192.22}, "Pt": {78, 195.08},
	"Au": {79, 196.97}, "Hg": {80, 200.59}, "Tl": {81, 204.38}, "Pb": {82, 207.2},
	"Bi": {83, 208.98}, "Po": {84, 209}, "At": {85, 210}, "Rn": {86, 222},
	"Th": {90, 232.04}, "U": {92, 238.03},
}

// Composition counts atoms per element symbol.
type Composition map[string]int

// ParseFormula parses a molecular formula such as "C2H6O", "CH3(CH2)2OH" or "CuSO4·5H2O".
func ParseFormula(formula string) (Composition, error) {
	p := &formulaParser{src: []rune(strings.TrimSpace(formula))}
	if len(p.src) == 0 {
		return nil, fmt.Errorf("empty formula")
	}

	comp := Composition{}
	for {
		// Hydrate and adduct parts may carry a leading multiplier ("5H2O").
		mult := p.count(1)
		part, err := p.group(0)
		if err != nil {
			return nil, fmt.Errorf("formula %q: %w", formula, err)
		}
		for sym, n := range part {
			comp[sym] += n * mult
		}
		if p.done() {
			break
		}
		switch p.peek() {
		case '·', '.', '*', '•':
			p.pos++
		default:
			return nil, fmt.Errorf("formula %q: unexpected %q at %d", formula, p.peek(), p.pos)
		}
	}

	if len(comp) == 0 {
		return nil, fmt.Errorf("formula %q: no elements", formula)
	}
	return comp, nil
}

type formulaParser struct {
	src []rune
	pos int
}

func (p *formulaParser) done() bool { return p.pos >= len(p.src) }
func (p *formulaParser) peek() rune { return p.src[p.pos] }

func (p *formulaParser) count(fallback int) int {
	start := p.pos
	for !p.done() && unicode.IsDigit(p.peek()) {
		p.pos++
	}
	if start == p.pos {
		return fallback
	}
	n, _ := strconv.Atoi(string(p.src[start:p.pos]))
	return n
}

// group parses elements and bracketed sub-groups until a closing bracket or separator.
func (p *formulaParser) group(depth int) (Composition, error) {
	comp := Composition{}
	for !p.done() {
		r := p.peek()
		switch {
		case r == '(' || r == '[':
			p.pos++
			inner, err := p.group(depth + 1)
			if err != nil {
				return nil, err
			}
			if p.done() || (p.peek() != ')' && p.peek() != ']') {
				return nil, fmt.Errorf("unbalanced bracket")
			}
			p.pos++
			n := p.count(1)
			for sym, c := range inner {
				comp[sym] += c * n
			}
		case r == ')' || r == ']':
			if depth == 0 {
				return nil, fmt.Errorf("unbalanced bracket")
			}
			return comp, nil
		case unicode.IsUpper(r):
			sym := string(r)
			p.pos++
			if !p.done() && unicode.IsLower(p.peek()) {
				sym += string(p.peek())
				p.pos++
			}
			if _, ok := Elements[sym]; !ok {
				return nil, fmt.Errorf("unknown element %q", sym)
			}
			comp[sym] += p.count(1)
		case unicode.IsSpace(r):
			p.pos++
		default:
			return comp, nil
		}
	}
	return comp, nil
}

// ElectronCount returns the total electron count of a neutral molecule.
func ElectronCount(formula string) (int, error) {
	comp, err := ParseFormula(formula)
	if err != nil {
		return 0, err
	}
	total := 0
	for sym, n := range comp {
		total += Elements[sym].Z * n
	}
	return total, nil
}

// MolecularWeight returns the average molecular weight from standard atomic weights.
func MolecularWeight(formula string) (float64, error) {
	comp, err := ParseFormula(formula)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for sym, n := range comp {
		total += Elements[sym].Weight * float64(n)
	}
	return RoundFloat(total, 4), nil
}

// HillFormula renders a composition in Hill order (C, H, then alphabetical).
func (c Composition) HillFormula() string {
	syms := make([]string, 0, len(c))
	for sym := range c {
		syms = append(syms, sym)
	}
	_, hasC := c["C"]
	sort.Slice(syms, func(i, j int) bool {
		if hasC {
			ri, rj := hillRank(syms[i]), hillRank(syms[j])
			if ri != rj {
				return ri < rj
			}
		}
		return syms[i] < syms[j]
	})

	var b strings.Builder
	for _, sym := range syms {
		b.WriteString(sym)
		if c[sym] != 1 {
			b.WriteString(strconv.Itoa(c[sym]))
		}
	}
	return b.String()
}

func hillRank(sym string) int {
	switch sym {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
