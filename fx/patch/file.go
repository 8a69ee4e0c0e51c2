package patch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reserved endpoint names for the canvas system nodes.
const (
	InputRef  = "_input"
	OutputRef = "_output"
)

// ErrInvalid is returned for patch files that are syntactically valid YAML
// but do not describe a consistent patch.
var ErrInvalid = errors.New("patch: invalid patch")

// File is the on-disk form of a patch.
type File struct {
	Name    string       `yaml:"name,omitempty"`
	Effects []EffectSpec `yaml:"effects"`
	Routes  []RouteSpec  `yaml:"routes,omitempty"`
	MIDI    []MIDISpec   `yaml:"midi,omitempty"`
}

// EffectSpec describes one effect. Params holds numbers, booleans or, for
// enumerations that have names, strings.
type EffectSpec struct {
	ID       string         `yaml:"id"`
	Type     string         `yaml:"type"`
	Bypassed bool           `yaml:"bypassed,omitempty"`
	Params   map[string]any `yaml:"params,omitempty"`
}

// RouteSpec connects two endpoints written as "id.label", "_input" or "_output".
type RouteSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// MIDISpec binds a controller or note to a parameter written as "id.param".
// Exactly one of CC and Note is set. A binding to "id.enabled" toggles the
// effect; other targets scale the 0..127 range onto [Min, Max].
type MIDISpec struct {
	Channel uint8   `yaml:"channel"`
	CC      *uint8  `yaml:"cc,omitempty"`
	Note    *uint8  `yaml:"note,omitempty"`
	Target  string  `yaml:"target"`
	Min     float64 `yaml:"min,omitempty"`
	Max     float64 `yaml:"max,omitempty"`
}

// Load reads and parses a patch file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patch: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse decodes and validates a patch. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("patch: decode: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// Marshal encodes the patch as YAML.
func (f *File) Marshal() ([]byte, error) {
	var b bytes.Buffer

	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)

	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("patch: encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("patch: encode: %w", err)
	}

	return b.Bytes(), nil
}

// Validate checks references that can be checked without building: unique
// effect IDs, well-formed endpoints and MIDI bindings.
func (f *File) Validate() error {
	ids := make(map[string]bool, len(f.Effects))

	for i, e := range f.Effects {
		switch {
		case e.ID == "":
			return fmt.Errorf("%w: effect %d has no id", ErrInvalid, i)
		case strings.ContainsRune(e.ID, '.') || strings.HasPrefix(e.ID, "_"):
			return fmt.Errorf("%w: effect id %q may not contain '.' or start with '_'", ErrInvalid, e.ID)
		case e.Type == "":
			return fmt.Errorf("%w: effect %q has no type", ErrInvalid, e.ID)
		case ids[e.ID]:
			return fmt.Errorf("%w: duplicate effect id %q", ErrInvalid, e.ID)
		}

		ids[e.ID] = true
	}

	for i, r := range f.Routes {
		for _, ref := range []string{r.From, r.To} {
			if err := checkRef(ids, ref, true); err != nil {
				return fmt.Errorf("route %d: %w", i, err)
			}
		}
	}

	for i, m := range f.MIDI {
		if (m.CC == nil) == (m.Note == nil) {
			return fmt.Errorf("%w: midi binding %d needs exactly one of cc and note", ErrInvalid, i)
		}

		if m.Channel > 15 {
			return fmt.Errorf("%w: midi binding %d: channel %d out of range", ErrInvalid, i, m.Channel)
		}

		if err := checkRef(ids, m.Target, false); err != nil {
			return fmt.Errorf("midi binding %d: %w", i, err)
		}
	}

	return nil
}

func checkRef(ids map[string]bool, ref string, system bool) error {
	if system && (ref == InputRef || ref == OutputRef) {
		return nil
	}

	id, label, ok := strings.Cut(ref, ".")
	if !ok || label == "" {
		return fmt.Errorf("%w: reference %q is not of the form id.name", ErrInvalid, ref)
	}

	if !ids[id] {
		return fmt.Errorf("%w: reference %q names unknown effect %q", ErrInvalid, ref, id)
	}

	return nil
}
