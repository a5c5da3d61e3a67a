// Package netfile reads and writes flattened games as YAML. A file lists the
// roles and every proposition with at most one defining formula:
//
//	game:
//	  name: counter
//	  roles: [red, blue]
//	  propositions:
//	    - name: (true (count 0))
//	      next: (next (count 0))
//	    - name: terminal
//	      or: [(true (count 2))]
//
// Formulas are and, or (lists of references), not, same (a one-input and),
// next (the transition source of a base fact) and const. The references
// $true and $false name constants.
package netfile

import (
	"fmt"
	"os"

	"ggp/gdl"
	"ggp/games"
	"ggp/propnet"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	refTrue  = "$true"
	refFalse = "$false"
)

type rawFile struct {
	Game rawGame `yaml:"game"`
}

type rawGame struct {
	Name         string    `yaml:"name"`
	Roles        []string  `yaml:"roles"`
	Propositions []rawProp `yaml:"propositions"`
}

type rawProp struct {
	Name  string   `yaml:"name"`
	And   []string `yaml:"and,omitempty"`
	Or    []string `yaml:"or,omitempty"`
	Not   string   `yaml:"not,omitempty"`
	Same  string   `yaml:"same,omitempty"`
	Next  string   `yaml:"next,omitempty"`
	Const *bool    `yaml:"const,omitempty"`
}

func (p rawProp) formulas() int {
	n := 0
	for _, set := range []bool{p.And != nil, p.Or != nil, p.Not != "", p.Same != "", p.Next != "", p.Const != nil} {
		if set {
			n++
		}
	}
	return n
}

// LoadFile parses a game YAML file.
func LoadFile(path string) (*games.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a game from YAML bytes. Every problem found is reported.
func Parse(data []byte) (*games.Game, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	g := &raw.Game
	if g.Name == "" {
		return nil, fmt.Errorf("game must have a name")
	}

	var result *multierror.Error
	roles := make([]gdl.Term, 0, len(g.Roles))
	for _, r := range g.Roles {
		t, err := gdl.Parse(r)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("role %q: %w", r, err))
			continue
		}
		roles = append(roles, t)
	}
	if len(g.Roles) == 0 {
		result = multierror.Append(result, fmt.Errorf("game %s declares no roles", g.Name))
	}

	c := propnet.NewCircuit()
	ids := make(map[string]propnet.ID, len(g.Propositions))
	for _, p := range g.Propositions {
		t, err := gdl.Parse(p.Name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("proposition %q: %w", p.Name, err))
			continue
		}
		if _, ok := ids[t.String()]; ok {
			result = multierror.Append(result, fmt.Errorf("proposition %s declared twice", t))
			continue
		}
		ids[t.String()] = c.AddProposition(t)
	}

	constants := map[string]propnet.ID{}
	resolve := func(owner, ref string) (propnet.ID, error) {
		if ref == refTrue || ref == refFalse {
			if _, ok := constants[ref]; !ok {
				constants[ref] = c.AddConstant(ref == refTrue)
			}
			return constants[ref], nil
		}
		t, err := gdl.Parse(ref)
		if err != nil {
			return propnet.NoID, fmt.Errorf("%s refers to %q: %w", owner, ref, err)
		}
		id, ok := ids[t.String()]
		if !ok {
			return propnet.NoID, fmt.Errorf("%s refers to undeclared %s", owner, t)
		}
		return id, nil
	}
	resolveAll := func(owner string, refs []string) ([]propnet.ID, error) {
		out := make([]propnet.ID, 0, len(refs))
		for _, ref := range refs {
			id, err := resolve(owner, ref)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		return out, nil
	}

	for _, p := range g.Propositions {
		t, err := gdl.Parse(p.Name)
		if err != nil {
			continue
		}
		owner := t.String()
		prop, ok := ids[owner]
		if !ok {
			continue
		}
		if n := p.formulas(); n > 1 {
			result = multierror.Append(result, fmt.Errorf("%s has %d formulas", owner, n))
			continue
		}

		switch {
		case p.And != nil || p.Or != nil:
			kind, refs := propnet.And, p.And
			if p.Or != nil {
				kind, refs = propnet.Or, p.Or
			}
			if len(refs) == 0 {
				err = fmt.Errorf("%s has an empty %s", owner, kind)
				break
			}
			var inputs []propnet.ID
			if inputs, err = resolveAll(owner, refs); err == nil {
				c.Define(prop, kind, inputs...)
			}
		case p.Not != "" || p.Same != "":
			kind, ref := propnet.Not, p.Not
			if p.Same != "" {
				kind, ref = propnet.And, p.Same
			}
			var input propnet.ID
			if input, err = resolve(owner, ref); err == nil {
				c.Define(prop, kind, input)
			}
		case p.Next != "":
			var source propnet.ID
			if source, err = resolve(owner, p.Next); err == nil {
				c.Latch(prop, source)
			}
		case p.Const != nil:
			c.Fix(prop, *p.Const)
		}
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("game %s: %w", g.Name, err)
	}
	return &games.Game{Name: g.Name, Roles: roles, Circuit: c}, nil
}

// Marshal writes g in the format Parse reads. Gates that feed several
// propositions are written once per proposition.
func Marshal(g *games.Game) ([]byte, error) {
	c := g.Circuit
	raw := rawFile{Game: rawGame{Name: g.Name}}
	for _, r := range g.Roles {
		raw.Game.Roles = append(raw.Game.Roles, r.String())
	}

	ref := func(id propnet.ID) string {
		if c.Kind(id) == propnet.Constant {
			if c.Value(id) {
				return refTrue
			}
			return refFalse
		}
		return c.Name(id).String()
	}
	for _, id := range c.IDs() {
		if c.Kind(id) != propnet.Proposition {
			continue
		}
		p := rawProp{Name: c.Name(id).String()}
		if ins := c.Inputs(id); len(ins) == 1 {
			src := ins[0]
			switch c.Kind(src) {
			case propnet.Constant:
				v := c.Value(src)
				p.Const = &v
			case propnet.Transition:
				p.Next = ref(c.Inputs(src)[0])
			case propnet.Not:
				p.Not = ref(c.Inputs(src)[0])
			case propnet.And, propnet.Or:
				refs := make([]string, 0, len(c.Inputs(src)))
				for _, in := range c.Inputs(src) {
					refs = append(refs, ref(in))
				}
				if c.Kind(src) == propnet.And {
					p.And = refs
				} else {
					p.Or = refs
				}
			default:
				return nil, fmt.Errorf("%s is defined by a %s", p.Name, c.Kind(src))
			}
		}
		raw.Game.Propositions = append(raw.Game.Propositions, p)
	}
	return yaml.Marshal(&raw)
}
