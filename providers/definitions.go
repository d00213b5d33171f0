package providers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/jhump/gombok/syntax"
)

// ErrUnsupportedFormat is returned when a definition file has an extension
// other than .yaml, .yml, or .toml.
var ErrUnsupportedFormat = errors.New("unsupported provider definition format")

// File is the schema of a provider definition file.
//
//	gombok: ">= 0.4"
//	providers:
//	  - name: metrics
//	    type: example.com/metrics.Recorder
//	    default: example.com/metrics.NopRecorder
//	    factory: Nop
//	    methods:
//	      - name: Count
//	        params:
//	          - {name: key, type: string}
//	          - {name: n, type: int64}
type File struct {
	// Gombok is an optional semver constraint that the running tool version
	// must satisfy.
	Gombok    string       `yaml:"gombok" toml:"gombok"`
	Providers []Definition `yaml:"providers" toml:"providers"`
}

// Definition declares a single provider. Types are written in the form
// accepted by syntax.ParseType. Only Name, Type, and Default are required;
// other names are derived from Name when absent.
type Definition struct {
	Name       string             `yaml:"name" toml:"name"`
	Annotation string             `yaml:"annotation" toml:"annotation"`
	Type       string             `yaml:"type" toml:"type"`
	Default    string             `yaml:"default" toml:"default"`
	Factory    string             `yaml:"factory" toml:"factory"`
	Field      string             `yaml:"field" toml:"field"`
	Getter     string             `yaml:"getter" toml:"getter"`
	Setter     string             `yaml:"setter" toml:"setter"`
	Param      string             `yaml:"param" toml:"param"`
	Methods    []MethodDefinition `yaml:"methods" toml:"methods"`
}

// MethodDefinition declares a delegated method. A parameter whose type starts
// with "..." makes the method variadic; it must be the last one.
type MethodDefinition struct {
	Name    string            `yaml:"name" toml:"name"`
	Params  []ParamDefinition `yaml:"params" toml:"params"`
	Results []string          `yaml:"results" toml:"results"`
}

// ParamDefinition declares a parameter of a delegated method.
type ParamDefinition struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// DefaultFactory is the factory name used when a definition omits one.
const DefaultFactory = "Default"

// ReadFile reads and decodes the definition file at the given path. The
// format is chosen by the file's extension.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading provider definitions")
	}
	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Newf("%s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	return &f, nil
}

// CheckVersion verifies that the given tool version satisfies the file's
// version constraint, if it has one.
func (f *File) CheckVersion(version string) error {
	if f.Gombok == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid gombok version %s", version)
	}
	c, err := semver.NewConstraint(f.Gombok)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", f.Gombok)
	}
	if !c.Check(v) {
		return errors.WithHintf(
			errors.Newf("provider definitions require gombok %s, but running %s", f.Gombok, version),
			"upgrade gombok or relax the %q constraint", "gombok")
	}
	return nil
}

// Constants converts all definitions in the file into validated constants.
func (f *File) Constants() ([]Constants, error) {
	result := make([]Constants, 0, len(f.Providers))
	for _, def := range f.Providers {
		c, err := def.Constants()
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

// Constants converts the definition into validated constants.
func (d Definition) Constants() (Constants, error) {
	if d.Name == "" {
		return Constants{}, errors.New("provider definition is missing a name")
	}
	wrap := func(err error) error {
		return errors.Wrapf(err, "provider %q", d.Name)
	}
	if d.Type == "" || d.Default == "" {
		return Constants{}, wrap(errors.New("type and default are required"))
	}
	pt, err := syntax.ParseType(d.Type)
	if err != nil {
		return Constants{}, wrap(err)
	}
	dt, err := syntax.ParseType(d.Default)
	if err != nil {
		return Constants{}, wrap(err)
	}

	base := exportedName(d.Name)
	c := Constants{
		Name:                d.Name,
		Annotation:          d.Annotation,
		ProviderType:        pt,
		DefaultProviderType: dt,
		Factory:             orDefault(d.Factory, DefaultFactory),
		FieldName:           orDefault(d.Field, unexportedName(d.Name)+"Provider"),
		GetterName:          orDefault(d.Getter, base+"Provider"),
		SetterName:          orDefault(d.Setter, "Set"+base+"Provider"),
		ParamName:           orDefault(d.Param, "provider"),
	}
	for _, md := range d.Methods {
		m, err := md.descriptor()
		if err != nil {
			return Constants{}, wrap(err)
		}
		c.Methods = append(c.Methods, m)
	}
	if err := c.Validate(); err != nil {
		return Constants{}, err
	}
	return c, nil
}

func (md MethodDefinition) descriptor() (syntax.MethodDescriptor, error) {
	m := syntax.MethodDescriptor{Name: md.Name}
	for i, p := range md.Params {
		typ := strings.TrimSpace(p.Type)
		if strings.HasPrefix(typ, "...") {
			if i != len(md.Params)-1 {
				return m, errors.Newf("method %q: only the last parameter may be variadic", md.Name)
			}
			m.Variadic = true
			typ = "[]" + strings.TrimPrefix(typ, "...")
		}
		t, err := syntax.ParseType(typ)
		if err != nil {
			return m, errors.Wrapf(err, "method %q, parameter %q", md.Name, p.Name)
		}
		m.Params = append(m.Params, syntax.NewArg(t, p.Name))
	}
	for _, r := range md.Results {
		t, err := syntax.ParseType(r)
		if err != nil {
			return m, errors.Wrapf(err, "method %q result", md.Name)
		}
		m.Results = append(m.Results, t)
	}
	return m, nil
}

func orDefault(s, dflt string) string {
	if s == "" {
		return dflt
	}
	return s
}

// exportedName converts a provider name like "open-metrics" into an exported
// identifier fragment like "OpenMetrics".
func exportedName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func unexportedName(name string) string {
	s := exportedName(name)
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
