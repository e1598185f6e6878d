package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"fstx/internal/fstx"
)

// Plan describes one filesystem transaction in a TOML file:
//
//	[[dirs]]
//	path = "conf.d"
//
//	[[files]]
//	path = "conf.d/10-default.conf"
//	content = "listen = 8080\n"
//
//	[[edits]]
//	path = "main.conf"
//	source = "main.conf.new"
//
// Relative paths resolve against the directory the plan file lives in.
// Directories are staged in plan order, so parents must be listed before
// their children.
type Plan struct {
	Dirs  []Dir  `toml:"dirs"`
	Files []File `toml:"files"`
	Edits []Edit `toml:"edits"`

	baseDir string
}

// Dir is a directory to create.
type Dir struct {
	Path string `toml:"path"`
}

// File is a file to create, with its content either inline or read from a
// source file.
type File struct {
	Path    string `toml:"path"`
	Content string `toml:"content,omitempty"`
	Source  string `toml:"source,omitempty"`
}

// Edit is an existing file whose content is replaced.
type Edit struct {
	Path    string `toml:"path"`
	Content string `toml:"content,omitempty"`
	Source  string `toml:"source,omitempty"`
}

// Load reads and validates the plan file at path.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plan file: %w", err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving plan path: %w", err)
	}
	return Parse(f, filepath.Dir(abs))
}

// Parse decodes and validates a plan, resolving relative paths against
// baseDir.
func Parse(r io.Reader, baseDir string) (*Plan, error) {
	var p Plan
	if _, err := toml.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	p.baseDir = baseDir
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) validate() error {
	for i, d := range p.Dirs {
		if d.Path == "" {
			return fmt.Errorf("dirs[%d]: path is required", i)
		}
	}
	for i, f := range p.Files {
		if f.Path == "" {
			return fmt.Errorf("files[%d]: path is required", i)
		}
		if f.Content != "" && f.Source != "" {
			return fmt.Errorf("files[%d] (%s): content and source are mutually exclusive", i, f.Path)
		}
	}
	for i, e := range p.Edits {
		if e.Path == "" {
			return fmt.Errorf("edits[%d]: path is required", i)
		}
		if e.Content == "" && e.Source == "" {
			return fmt.Errorf("edits[%d] (%s): content or source is required", i, e.Path)
		}
		if e.Content != "" && e.Source != "" {
			return fmt.Errorf("edits[%d] (%s): content and source are mutually exclusive", i, e.Path)
		}
	}
	return nil
}

// Stage registers every plan entry on tx and writes the declared content
// into the staged temp files. Nothing touches a real path until the caller
// commits tx.
func (p *Plan) Stage(tx *fstx.Tx) error {
	for _, d := range p.Dirs {
		if err := tx.StageDir(p.resolve(d.Path)); err != nil {
			return err
		}
	}
	for _, f := range p.Files {
		tempPath, err := tx.StageFile(p.resolve(f.Path))
		if err != nil {
			return err
		}
		if err := p.write(tempPath, f.Content, f.Source); err != nil {
			return fmt.Errorf("staging %s: %w", f.Path, err)
		}
	}
	for _, e := range p.Edits {
		tempPath, err := tx.NoteFile(p.resolve(e.Path))
		if err != nil {
			return err
		}
		if err := p.write(tempPath, e.Content, e.Source); err != nil {
			return fmt.Errorf("staging %s: %w", e.Path, err)
		}
	}
	return nil
}

func (p *Plan) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.baseDir, path)
}

func (p *Plan) write(tempPath, content, source string) error {
	data := []byte(content)
	if source != "" {
		var err error
		data, err = os.ReadFile(p.resolve(source))
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}
	}
	return os.WriteFile(tempPath, data, 0644)
}
