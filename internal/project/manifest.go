package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	defaultVersion = "1.0.0"
	defaultSources = "**/*.kl"
)

var (
	// ErrProjectSectionMissing indicates that [project] is missing.
	ErrProjectSectionMissing = errors.New("missing [project]")
	// ErrNotAProject indicates a workspace-only manifest was loaded as a project.
	ErrNotAProject = errors.New("manifest declares no [project]")
)

type manifestFile struct {
	Project    *projectSection    `toml:"project"`
	Compile    compileSection     `toml:"compile"`
	References []referenceSection `toml:"references" validate:"dive"`
	Workspace  *workspaceSection  `toml:"workspace"`
}

type projectSection struct {
	Name       string   `toml:"name" validate:"required,projname"`
	Version    string   `toml:"version" validate:"omitempty,dottedversion"`
	Frameworks []string `toml:"frameworks" validate:"required,min=1,dive,required"`
	Sources    []string `toml:"sources" validate:"dive,required"`
	Resources  []string `toml:"resources" validate:"dive,required"`
	Modules    []string `toml:"modules" validate:"dive,required"`
}

type compileSection struct {
	Symbols          bool `toml:"symbols"`
	Docs             bool `toml:"docs"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

type referenceSection struct {
	Name    string `toml:"name" validate:"required_without=Project"`
	Path    string `toml:"path" validate:"required_without=Project,excluded_with=Project"`
	Project string `toml:"project" validate:"required_without=Path"`
}

type workspaceSection struct {
	Members []string `toml:"members" validate:"required,min=1,dive,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("projname", func(fl validator.FieldLevel) bool {
		return IsValidProjectName(fl.Field().String())
	})
	_ = v.RegisterValidation("dottedversion", func(fl validator.FieldLevel) bool {
		return isDottedVersion(strings.SplitN(fl.Field().String(), "-", 2)[0])
	})
	return v
}

func decodeManifest(path string) (*manifestFile, toml.MetaData, error) {
	var m manifestFile
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, meta, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, meta, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := validate.Struct(&m); err != nil {
		return nil, meta, validationError(path, err)
	}
	return &m, meta, nil
}

func validationError(path string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s: %w", path, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "manifestFile.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%s: invalid manifest: %s", path, strings.Join(msgs, "; "))
}

// LoadManifest parses and validates a project kiln.toml.
func LoadManifest(path string) (*Descriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	m, meta, err := decodeManifest(abs)
	if err != nil {
		return nil, err
	}
	if !meta.IsDefined("project") || m.Project == nil {
		return nil, fmt.Errorf("%s: %w", abs, ErrProjectSectionMissing)
	}
	return m.descriptor(abs)
}

func (m *manifestFile) descriptor(manifestPath string) (*Descriptor, error) {
	p := m.Project
	d := &Descriptor{
		Name:         p.Name,
		Version:      p.Version,
		Dir:          filepath.Dir(manifestPath),
		ManifestPath: manifestPath,
		Sources:      p.Sources,
		Resources:    p.Resources,
		Modules:      p.Modules,
		Compile: CompileOptions{
			Symbols:          m.Compile.Symbols,
			Docs:             m.Compile.Docs,
			WarningsAsErrors: m.Compile.WarningsAsErrors,
		},
	}
	if d.Version == "" {
		d.Version = defaultVersion
	}
	if len(d.Sources) == 0 {
		d.Sources = []string{defaultSources}
	}
	seen := make(map[FrameworkName]struct{}, len(p.Frameworks))
	for _, raw := range p.Frameworks {
		fw, err := ParseFrameworkName(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", manifestPath, err)
		}
		if _, dup := seen[fw]; dup {
			return nil, fmt.Errorf("%s: duplicate framework %q", manifestPath, raw)
		}
		seen[fw] = struct{}{}
		d.Frameworks = append(d.Frameworks, fw)
	}
	for _, ref := range m.References {
		spec := ReferenceSpec{
			Name:    strings.TrimSpace(ref.Name),
			Path:    strings.TrimSpace(ref.Path),
			Project: strings.TrimSpace(ref.Project),
		}
		if spec.Name == "" && spec.Path != "" {
			spec.Name = strings.TrimSuffix(filepath.Base(spec.Path), filepath.Ext(spec.Path))
		}
		if spec.IsProject() {
			spec.ProjectName = referencedProjectName(d.Abs(spec.Project))
			if spec.Name == "" {
				spec.Name = spec.ProjectName
			}
		}
		d.References = append(d.References, spec)
	}
	return d, nil
}

// referencedProjectName reads the [project] name from dir's manifest and
// falls back to the directory name when it is missing or unreadable.
func referencedProjectName(dir string) string {
	var head struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
	}
	if _, err := toml.DecodeFile(filepath.Join(dir, ManifestName), &head); err == nil && head.Project.Name != "" {
		return head.Project.Name
	}
	return filepath.Base(dir)
}
