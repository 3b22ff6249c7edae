package option

import (
	"strconv"
	"strings"
)

// Parse turns a string-grammar literal (as passed from the CLI's -o flag or
// a config file override) into a Value, via the four-stage pipeline spec.md
// §4.1 describes: tokenize, structure-by-depth, condition, objectify. This
// is a from-scratch Go port of the grammar pyke's options_parser.py
// implements; the stage names and contract match, the token-tree shape is
// reworked into something a static type system can walk without Python's
// duck-typed AST-as-list-of-lists.
func Parse(s string) (Value, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Value{}, err
	}
	tree, rest, err := structure(toks)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, &ValueError{Input: s, Message: "trailing tokens after value"}
	}
	conditioned := condition(tree)
	return objectify(conditioned)
}

type tokKind int

const (
	tAtom tokKind = iota
	tQString
	tDQString
	tLParen
	tRParen
	tLBracket
	tRBracket
	tLBrace
	tRBrace
	tColon
	tComma
)

type token struct {
	kind tokKind
	text string
}

// tokenize is stage 1: a character-level scan that produces brackets,
// separators, quoted runs (no interpretation inside '...', backslash-escape
// inside "..."), and bare runs merged into single Atom tokens. Whitespace
// outside quotes is a separator and is dropped.
func tokenize(s string) ([]token, error) {
	var toks []token
	depth := 0
	var atom strings.Builder
	flushAtom := func() {
		if atom.Len() > 0 {
			toks = append(toks, token{kind: tAtom, text: atom.String()})
			atom.Reset()
		}
	}

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch c {
		case '\'', '"':
			flushAtom()
			quote := c
			var b strings.Builder
			i++
			closed := false
			for i < len(runes) {
				cc := runes[i]
				if cc == '\\' && quote == '"' {
					i++
					if i >= len(runes) {
						return nil, &ValueError{Input: s, Message: "cannot end in a bare escapement"}
					}
					b.WriteRune(runes[i])
					i++
					continue
				}
				if cc == quote {
					closed = true
					i++
					break
				}
				b.WriteRune(cc)
				i++
			}
			if !closed {
				return nil, &ValueError{Input: s, Message: "unterminated quoted string"}
			}
			if quote == '\'' {
				toks = append(toks, token{kind: tQString, text: b.String()})
			} else {
				toks = append(toks, token{kind: tDQString, text: b.String()})
			}
			continue
		case '(':
			flushAtom()
			depth++
			toks = append(toks, token{kind: tLParen, text: "("})
		case ')':
			flushAtom()
			depth--
			if depth < 0 {
				return nil, &ValueError{Input: s, Message: "extraneous \")\""}
			}
			toks = append(toks, token{kind: tRParen, text: ")"})
		case '[':
			flushAtom()
			depth++
			toks = append(toks, token{kind: tLBracket, text: "["})
		case ']':
			flushAtom()
			depth--
			if depth < 0 {
				return nil, &ValueError{Input: s, Message: "extraneous \"]\""}
			}
			toks = append(toks, token{kind: tRBracket, text: "]"})
		case '{':
			flushAtom()
			depth++
			toks = append(toks, token{kind: tLBrace, text: "{"})
		case '}':
			flushAtom()
			depth--
			if depth < 0 {
				return nil, &ValueError{Input: s, Message: "extraneous \"}\""}
			}
			toks = append(toks, token{kind: tRBrace, text: "}"})
		case ':':
			flushAtom()
			toks = append(toks, token{kind: tColon, text: ":"})
		case ',':
			flushAtom()
			toks = append(toks, token{kind: tComma, text: ","})
		case '\\':
			i++
			if i >= len(runes) {
				return nil, &ValueError{Input: s, Message: "cannot end in a bare escapement"}
			}
			atom.WriteRune(runes[i])
		default:
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				flushAtom()
			} else {
				atom.WriteRune(c)
			}
		}
		i++
	}
	flushAtom()
	if depth != 0 {
		return nil, &ValueError{Input: s, Message: "unbalanced brackets"}
	}
	return toks, nil
}

// treeNode is the stage-2/3 structure: either a leaf token or a bracketed
// group (list/tuple/brace) holding its child elements, already split on
// commas so each element is itself a (possibly colon-paired, for braces)
// sequence of leaves/groups.
type treeNode struct {
	leaf     *token
	open     tokKind // tLParen/tLBracket/tLBrace for groups, 0 for leaves
	elements [][]treeNode
}

// structure is stage 2: nests the flat token list by bracket depth,
// splitting each group's body on top-level commas.
func structure(toks []token) ([]treeNode, []token, error) {
	var out []treeNode
	for len(toks) > 0 {
		t := toks[0]
		switch t.kind {
		case tRParen, tRBracket, tRBrace, tColon, tComma:
			return out, toks, nil
		case tLParen, tLBracket, tLBrace:
			closeKind := map[tokKind]tokKind{tLParen: tRParen, tLBracket: tRBracket, tLBrace: tRBrace}[t.kind]
			rest := toks[1:]
			var elements [][]treeNode
			var cur []treeNode
			for {
				if len(rest) == 0 {
					return nil, nil, &ValueError{Input: "", Message: "unterminated group"}
				}
				if rest[0].kind == closeKind {
					elements = append(elements, cur)
					rest = rest[1:]
					break
				}
				if rest[0].kind == tComma {
					elements = append(elements, cur)
					cur = nil
					rest = rest[1:]
					continue
				}
				if rest[0].kind == tColon {
					cur = append(cur, treeNode{leaf: &token{kind: tColon, text: ":"}})
					rest = rest[1:]
					continue
				}
				if rest[0].kind == tRParen || rest[0].kind == tRBracket || rest[0].kind == tRBrace {
					return nil, nil, &ValueError{Input: "", Message: "mismatched closing bracket"}
				}
				children, remaining, err := structure(rest)
				if err != nil {
					return nil, nil, err
				}
				cur = append(cur, children...)
				rest = remaining
			}
			out = append(out, treeNode{open: t.kind, elements: elements})
			toks = rest
		default:
			tc := t
			out = append(out, treeNode{leaf: &tc})
			toks = toks[1:]
		}
	}
	return out, toks, nil
}

// condition is stage 3: no-op structurally (tokenize already merges
// adjacent bare runs and drops whitespace, and structure has already split
// groups on commas), but it is
// where the brace-singleton interpolation rule from spec.md §4.1 applies:
// a brace group containing exactly one bare/quoted atom and no colon is
// collapsed back into a single interpolatable string `{atom}`, rather than
// being treated as a one-element set.
func condition(nodes []treeNode) []treeNode {
	out := make([]treeNode, len(nodes))
	for i, n := range nodes {
		out[i] = conditionNode(n)
	}
	return out
}

func conditionNode(n treeNode) treeNode {
	if n.leaf != nil {
		return n
	}
	if n.open == tLBrace && len(n.elements) == 1 && len(n.elements[0]) == 1 {
		el := n.elements[0][0]
		if el.leaf != nil && el.leaf.kind == tAtom {
			collapsed := "{" + el.leaf.text + "}"
			return treeNode{leaf: &token{kind: tAtom, text: collapsed}}
		}
	}
	newElements := make([][]treeNode, len(n.elements))
	for i, el := range n.elements {
		newElements[i] = condition(el)
	}
	return treeNode{open: n.open, elements: newElements}
}

// objectify is stage 4: converts the conditioned tree into a Value,
// classifying bare atoms as int/float/bool/none/string and disambiguating
// "{...}" as a set or a map by checking whether every element is a
// colon-pair.
func objectify(nodes []treeNode) (Value, error) {
	if len(nodes) == 0 {
		return String(""), nil
	}
	return objectifyNode(nodes[0])
}

func objectifyNode(n treeNode) (Value, error) {
	if n.leaf != nil {
		return leafValue(*n.leaf), nil
	}
	switch n.open {
	case tLBracket:
		items, err := objectifyElements(n.elements)
		if err != nil {
			return Value{}, err
		}
		return List(items), nil
	case tLParen:
		items, err := objectifyElements(n.elements)
		if err != nil {
			return Value{}, err
		}
		return Tuple(items), nil
	case tLBrace:
		isDict := len(n.elements) > 0
		for _, el := range n.elements {
			if !hasTopColon(el) {
				isDict = false
				break
			}
		}
		if len(n.elements) == 1 && len(n.elements[0]) == 0 {
			// "{}" with nothing between: empty set.
			return Set(nil), nil
		}
		if isDict {
			keys := make([]Value, 0, len(n.elements))
			vals := make([]Value, 0, len(n.elements))
			for _, el := range n.elements {
				k, v, err := splitColonPair(el)
				if err != nil {
					return Value{}, err
				}
				kv, err := objectifyNode(k)
				if err != nil {
					return Value{}, err
				}
				vv, err := objectifyNode(v)
				if err != nil {
					return Value{}, err
				}
				keys = append(keys, kv)
				vals = append(vals, vv)
			}
			return Map(keys, vals), nil
		}
		items, err := objectifyElements(n.elements)
		if err != nil {
			return Value{}, err
		}
		return Set(items), nil
	default:
		return Value{}, &ValueError{Input: "", Message: "malformed value tree"}
	}
}

func objectifyElements(elements [][]treeNode) ([]Value, error) {
	if len(elements) == 1 && len(elements[0]) == 0 {
		return nil, nil
	}
	out := make([]Value, 0, len(elements))
	for _, el := range elements {
		if len(el) == 0 {
			continue
		}
		v, err := objectifyNode(el[0])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func hasTopColon(el []treeNode) bool {
	for _, n := range el {
		if n.leaf != nil && n.leaf.kind == tColon {
			return true
		}
	}
	return false
}

func splitColonPair(el []treeNode) (treeNode, treeNode, error) {
	for i, n := range el {
		if n.leaf != nil && n.leaf.kind == tColon {
			if i == 0 || i == len(el)-1 {
				return treeNode{}, treeNode{}, &ValueError{Input: "", Message: "malformed key:value pair"}
			}
			return el[i-1], el[i+1], nil
		}
	}
	return treeNode{}, treeNode{}, &ValueError{Input: "", Message: "missing colon in map pair"}
}

// leafValue classifies a leaf token into its native Value, per the grammar's
// `bare := <chars> ; classified as int/float/bool/none/string` rule.
func leafValue(t token) Value {
	switch t.kind {
	case tQString, tDQString:
		return String(t.text)
	case tAtom:
		return classifyBare(t.text)
	default:
		return String(t.text)
	}
}

func classifyBare(s string) Value {
	switch s {
	case "true", "True", "TRUE":
		return Bool(true)
	case "false", "False", "FALSE":
		return Bool(false)
	case "none", "None", "NONE", "null":
		return Null()
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return String(s)
}
