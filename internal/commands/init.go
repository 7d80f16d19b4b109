package commands

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/jxapi/jxgen/internal/codegen/targets"
	"github.com/jxapi/jxgen/internal/config"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/naming"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	packagePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type InitOptions struct {
	Target     string
	Package    string
	ExchangeID string
	Samples    bool
}

// templateData is what the sample descriptor templates see
type templateData struct {
	Package         string
	ExchangeID      string
	ExchangePackage string
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

type InitCommand struct {
	dir         string
	out         io.Writer
	filesystem  FileSystem
	templatesFS fs.FS
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand(dir string, out io.Writer) *InitCommand {
	return &InitCommand{
		dir:         dir,
		out:         out,
		filesystem:  &osFileSystem{},
		templatesFS: templatesFS,
	}
}

func (c *Controller) Init(ctx context.Context) error {
	cmd := NewInitCommand(c.dir(), c.Out)
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	configPath := filepath.Join(ic.dir, config.FileName)
	if _, err := ic.filesystem.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	var options *InitOptions
	var err error

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}
	if err := options.validate(); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Target = options.Target
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", config.FileName, err)
	}
	if err := ic.filesystem.MkdirAll(ic.dir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := ic.filesystem.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}
	fmt.Fprintf(ic.out, "✅ Created %s\n", configPath)

	if !options.Samples {
		return nil
	}

	written, err := ic.writeSamples(templateData{
		Package:         options.Package,
		ExchangeID:      options.ExchangeID,
		ExchangePackage: naming.Snake(options.ExchangeID),
	})
	if err != nil {
		return fmt.Errorf("failed to write sample descriptors: %w", err)
	}
	for _, p := range written {
		fmt.Fprintf(ic.out, "✅ Created %s\n", p)
	}
	return nil
}

func (o *InitOptions) validate() error {
	if err := validateTarget(o.Target); err != nil {
		return err
	}
	if !o.Samples {
		return nil
	}
	if err := validatePackage(o.Package); err != nil {
		return err
	}
	return validateIdentifier(o.ExchangeID)
}

func validateTarget(target string) error {
	if _, err := targets.DefaultRegistry.Get(target); err != nil {
		return err
	}
	return nil
}

func validatePackage(s string) error {
	if !packagePattern.MatchString(s) {
		return fmt.Errorf("%q is not a valid package name", s)
	}
	return nil
}

func validateIdentifier(s string) error {
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("%q is not a valid identifier", s)
	}
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{Target: targets.Default, Samples: true}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		// Normal execution
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	targetOptions := make([]huh.Option[string], 0)
	for _, lang := range targets.DefaultRegistry.Languages() {
		targetOptions = append(targetOptions, huh.NewOption(lang, lang))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Target").
				Description("Language of the generated sources").
				Options(targetOptions...).
				Value(&options.Target),

			huh.NewConfirm().
				Title("Sample descriptors").
				Description("Write an example POJO and exchange descriptor").
				Value(&options.Samples),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Base package").
				Description("Package prefix of the sample descriptors, e.g. com.example").
				Value(&options.Package).
				Validate(validatePackage),

			huh.NewInput().
				Title("Exchange id").
				Description("Name of the sample exchange, e.g. Binance").
				Value(&options.ExchangeID).
				Validate(validateIdentifier),
		).WithHideFunc(func() bool { return !options.Samples }),
	)
}

// writeSamples renders every embedded template into the descriptor tree.
// Existing files are left alone.
func (ic *InitCommand) writeSamples(data templateData) ([]string, error) {
	var written []string
	err := fs.WalkDir(ic.templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}

		dest, err := ic.samplePath(p, data)
		if err != nil {
			return err
		}
		if _, err := ic.filesystem.Stat(dest); err == nil {
			fmt.Fprintf(ic.out, "⏭️  Skipping existing %s\n", dest)
			return nil
		}

		src, err := fs.ReadFile(ic.templatesFS, p)
		if err != nil {
			return err
		}
		tmpl, err := template.New(path.Base(p)).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", p, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("failed to render template %s: %w", p, err)
		}

		if err := ic.filesystem.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := ic.filesystem.WriteFile(dest, buf.Bytes(), 0644); err != nil {
			return err
		}
		written = append(written, dest)
		return nil
	})
	return written, err
}

// samplePath maps templates/<pojos|exchanges>/<name>.tmpl into the matching
// descriptor directory. The exchange sample is named after the exchange.
func (ic *InitCommand) samplePath(p string, data templateData) (string, error) {
	rel := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl")
	kind, name, ok := strings.Cut(rel, "/")
	if !ok {
		return "", fmt.Errorf("template %s is not in a descriptor kind directory", p)
	}

	var dir string
	switch kind {
	case "pojos":
		dir = descriptor.PojosDir
	case "exchanges":
		dir = descriptor.ExchangesDir
		name = data.ExchangePackage + path.Ext(name)
	default:
		return "", fmt.Errorf("template %s is not in a descriptor kind directory", p)
	}
	return filepath.Join(ic.dir, filepath.FromSlash(dir), name), nil
}
