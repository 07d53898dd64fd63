package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/validation"
)

// Descriptor is the decoded form of a beans.yaml file.
type Descriptor struct {
	Interceptors []string         `yaml:"interceptors"`
	Decorators   []string         `yaml:"decorators"`
	Alternatives Alternatives     `yaml:"alternatives"`
	Stereotypes  []StereotypeSpec `yaml:"stereotypes"`
	Scopes       []ScopeSpec      `yaml:"scopes"`

	// Source is the file the descriptor was read from, empty when parsed
	// from memory or when no file exists.
	Source string `yaml:"-"`
}

// Alternatives lists the enabled alternative classes and stereotypes.
type Alternatives struct {
	Classes     []string `yaml:"classes"`
	Stereotypes []string `yaml:"stereotypes"`
}

// StereotypeSpec declares a stereotype without Go code.
type StereotypeSpec struct {
	Name        string   `yaml:"name"`
	Scope       string   `yaml:"scope"`
	Alternative bool     `yaml:"alternative"`
	Named       bool     `yaml:"named"`
	Bindings    []string `yaml:"bindings"`
	Stereotypes []string `yaml:"stereotypes"`
}

// ScopeSpec declares an additional scope.
type ScopeSpec struct {
	Kind        string `yaml:"kind"`
	Normal      bool   `yaml:"normal"`
	Passivating bool   `yaml:"passivating"`
}

// Load reads and validates the descriptor at path. A missing file yields
// an empty descriptor.
func Load(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Descriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// Parse decodes and validates a descriptor held in memory.
func Parse(data []byte) (*Descriptor, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one YAML document from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Descriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Descriptor
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

var builtinScopes = strings.Join([]string{
	string(metadata.Dependent),
	string(metadata.Request),
	string(metadata.Session),
	string(metadata.Conversation),
	string(metadata.Application),
	string(metadata.Singleton),
}, ",")

// Validate checks every entry's shape. It does not check that the named
// classes exist; Deploy reports those.
func (d *Descriptor) Validate() error {
	data := map[string]string{}
	rules := validation.Rules{}
	list := func(prefix string, values []string, rule string) {
		for i, v := range values {
			key := prefix + "." + strconv.Itoa(i)
			data[key] = v
			rules[key] = rule
		}
	}

	list("interceptors", d.Interceptors, "required|qualified")
	list("decorators", d.Decorators, "required|qualified")
	list("alternatives.classes", d.Alternatives.Classes, "required|qualified")
	list("alternatives.stereotypes", d.Alternatives.Stereotypes, "required|regex:^[A-Za-z_][A-Za-z0-9_.]*$")

	for i, st := range d.Stereotypes {
		key := "stereotypes." + strconv.Itoa(i)
		data[key+".name"] = st.Name
		rules[key+".name"] = "required|regex:^[A-Za-z_][A-Za-z0-9_.]*$"
		data[key+".scope"] = st.Scope
		rules[key+".scope"] = "sometimes|identifier"
		list(key+".bindings", st.Bindings, "required|regex:^[A-Za-z_][A-Za-z0-9_.]*$")
		list(key+".stereotypes", st.Stereotypes, "required|regex:^[A-Za-z_][A-Za-z0-9_.]*$")
	}
	for i, sc := range d.Scopes {
		key := "scopes." + strconv.Itoa(i) + ".kind"
		data[key] = sc.Kind
		rules[key] = "required|identifier|not_in:" + builtinScopes
	}

	if err := validation.Make(data, rules).Err(); err != nil {
		return fmt.Errorf("invalid descriptor: %w", err)
	}
	return nil
}

// ScopeDefs returns the declared scopes in the form the container
// configuration takes.
func (d *Descriptor) ScopeDefs() []metadata.ScopeDef {
	out := make([]metadata.ScopeDef, 0, len(d.Scopes))
	for _, sc := range d.Scopes {
		out = append(out, metadata.ScopeDef{
			Kind:        metadata.ScopeKind(sc.Kind),
			Normal:      sc.Normal,
			Passivating: sc.Passivating,
		})
	}
	return out
}

// Apply registers the stereotypes and enablement of d with dep. Scopes
// are not applied here; pass ScopeDefs through container.Config before
// creating the deployment. Every failing entry is reported.
func (d *Descriptor) Apply(dep *container.Deployment) error {
	for _, st := range d.Stereotypes {
		s := &metadata.Stereotype{
			Name:        st.Name,
			Scope:       metadata.ScopeKind(st.Scope),
			Alternative: st.Alternative,
			Named:       st.Named,
			Stereotypes: st.Stereotypes,
		}
		for _, b := range st.Bindings {
			s.Bindings = append(s.Bindings, metadata.Binding{Type: b})
		}
		dep.AddStereotype(s)
	}

	reg := dep.Registry
	var err error
	for _, class := range d.Interceptors {
		err = multierr.Append(err, reg.EnableInterceptor(class))
	}
	for _, class := range d.Decorators {
		err = multierr.Append(err, reg.EnableDecorator(class))
	}
	for _, class := range d.Alternatives.Classes {
		err = multierr.Append(err, reg.EnableAlternative(class))
	}
	for _, name := range d.Alternatives.Stereotypes {
		err = multierr.Append(err, reg.EnableAlternativeStereotype(name))
	}
	if err != nil && d.Source != "" {
		return fmt.Errorf("descriptor %s: %w", d.Source, err)
	}
	return err
}
