// Package catalogue loads the instrument map of the synthesizer: named groups
// of instruments, each with a bank select and a program change value.
package catalogue

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaData []byte

//go:embed gm.json
var defaultData []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaData))
})

// Group is an ordered set of instruments sharing a category.
type Group struct {
	Name        string
	Instruments []*Instrument
}

// Catalogue is an immutable, ordered mapping of group name to group.
type Catalogue struct {
	groups *orderedmap.OrderedMap[string, *Group]
	names  []string
	base   ProgramBase
}

// Option configures loading.
type Option func(*options)

type options struct {
	base ProgramBase
}

// WithProgramBase sets the numbering convention of pc values in the source.
// The default is OneBased.
func WithProgramBase(base ProgramBase) Option {
	return func(o *options) {
		o.base = base
	}
}

// Default returns the built-in General MIDI catalogue.
func Default(opts ...Option) (*Catalogue, error) {
	// The embedded map is always one-based.
	return Load(defaultData, append(opts, WithProgramBase(OneBased))...)
}

// LoadFile reads and parses a catalogue file.
func LoadFile(path string, opts ...Option) (*Catalogue, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, malformed("reading %s: %v", path, err)
	}
	return Load(data, opts...)
}

// Load parses catalogue JSON of the form
//
//	{"group": [{"Instrument name": {"cc": 0, "pc": 1}}, ...], ...}
//
// Group and instrument order follow the document.
func Load(data []byte, opts ...Option) (*Catalogue, error) {
	o := options{base: OneBased}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateShape(data); err != nil {
		return nil, err
	}

	c := &Catalogue{
		groups: orderedmap.New[string, *Group](),
		base:   o.base,
	}

	err := jsonparser.ObjectEach(data, func(key, value []byte, _ jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return malformed("group name %q: %v", key, err)
		}
		if _, dup := c.groups.Get(name); dup {
			return malformed("duplicate group %q", name)
		}
		g, err := parseGroup(name, value, o.base)
		if err != nil {
			return err
		}
		c.groups.Set(name, g)
		c.names = append(c.names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(c.names) == 0 {
		return nil, malformed("no groups")
	}
	return c, nil
}

func validateShape(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling catalogue schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return malformed("%v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return malformed("%s", strings.Join(msgs, "; "))
	}
	return nil
}

func parseGroup(name string, data []byte, base ProgramBase) (*Group, error) {
	g := &Group{Name: name}
	var firstErr error
	_, err := jsonparser.ArrayEach(data, func(entry []byte, _ jsonparser.ValueType, _ int, err error) {
		if firstErr != nil {
			return
		}
		if err != nil {
			firstErr = malformed("group %q: %v", name, err)
			return
		}
		inst, err := parseInstrument(entry, base)
		if err != nil {
			firstErr = err
			return
		}
		g.Instruments = append(g.Instruments, inst)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	if err != nil {
		return nil, malformed("group %q: %v", name, err)
	}
	if len(g.Instruments) == 0 {
		return nil, malformed("group %q is empty", name)
	}
	return g, nil
}

func parseInstrument(entry []byte, base ProgramBase) (*Instrument, error) {
	var inst *Instrument
	err := jsonparser.ObjectEach(entry, func(key, fields []byte, _ jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil || name == "" {
			return malformed("instrument name %q", key)
		}
		cc, err := jsonparser.GetInt(fields, "cc")
		if err != nil {
			return malformed("instrument %q: cc: %v", name, err)
		}
		pc, err := jsonparser.GetInt(fields, "pc")
		if err != nil {
			return malformed("instrument %q: pc: %v", name, err)
		}
		inst, err = NewInstrument(name, int(cc), int(pc), base)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, malformed("instrument entry without name")
	}
	return inst, nil
}

// Groups returns the group names in declaration order.
func (c *Catalogue) Groups() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len is the number of groups.
func (c *Catalogue) Len() int {
	return len(c.names)
}

// Group returns the group at index i.
func (c *Catalogue) Group(i int) *Group {
	g, _ := c.groups.Get(c.names[i])
	return g
}

// Lookup returns the named group.
func (c *Catalogue) Lookup(name string) (*Group, bool) {
	return c.groups.Get(name)
}

// InstrumentsIn returns the instruments of a group, or nil for an unknown group.
func (c *Catalogue) InstrumentsIn(group string) []*Instrument {
	g, ok := c.groups.Get(group)
	if !ok {
		return nil
	}
	out := make([]*Instrument, len(g.Instruments))
	copy(out, g.Instruments)
	return out
}

// ProgramBase reports the numbering convention the catalogue was loaded with.
func (c *Catalogue) ProgramBase() ProgramBase {
	return c.base
}

// Find searches all groups for an instrument by case-insensitive name.
func (c *Catalogue) Find(name string) (group string, inst *Instrument, ok bool) {
	for pair := c.groups.Oldest(); pair != nil; pair = pair.Next() {
		for _, i := range pair.Value.Instruments {
			if strings.EqualFold(i.Name, name) {
				return pair.Key, i, true
			}
		}
	}
	return "", nil, false
}
