// Package artifacts names, writes and finds the subtitle files a run
// produces next to its source:
//
//	base.<ext>            original
//	base.<lang>.<ext>     translated
//	base.bilingual.<ext>  bilingual
//	base.summary.md       summary
//
// All access goes through an afero filesystem.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"dualsub/internal/burnin"
	"dualsub/internal/cue"
	"dualsub/internal/fileutil"
	"dualsub/internal/language"
	"dualsub/internal/subformat"
)

const (
	fileMode      = 0o644
	summarySuffix = ".summary.md"
)

// Artifact describes one file written by a run.
type Artifact struct {
	Path     string
	Kind     burnin.Kind
	Language string
	Format   cue.Format
	Bytes    int
}

// Store reads and writes artifacts under one directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a store rooted at dir. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, dir string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Fs returns the store filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// BaseName strips the directory and final extension from path.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Name returns the file name for an artifact of kind. lang is required for
// translated artifacts and ignored otherwise.
func Name(base string, kind burnin.Kind, lang string, format cue.Format) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("artifact base name required")
	}
	ext := format.Extension()
	switch kind {
	case burnin.KindOriginal:
		return base + ext, nil
	case burnin.KindBilingual:
		return base + "." + string(burnin.KindBilingual) + ext, nil
	case burnin.KindTranslated:
		if !language.IsFileMarker(lang) {
			return "", fmt.Errorf("translated artifact needs a file-safe language marker, got %q", lang)
		}
		return base + "." + lang + ext, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
}

// Path joins Name with the store directory.
func (s *Store) Path(base string, kind burnin.Kind, lang string, format cue.Format) (string, error) {
	name, err := Name(base, kind, lang, format)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// SummaryPath returns base.summary.md in the store directory.
func (s *Store) SummaryPath(base string) string {
	return filepath.Join(s.dir, base+summarySuffix)
}

// WriteDocument encodes doc in format and writes it atomically.
func (s *Store) WriteDocument(base string, kind burnin.Kind, doc cue.Document, format cue.Format) (Artifact, error) {
	lang := ""
	if kind == burnin.KindTranslated {
		lang = doc.Language()
	}
	path, err := s.Path(base, kind, lang, format)
	if err != nil {
		return Artifact{}, err
	}
	data := subformat.Write(doc.WithFormat(format), format)
	if err := fileutil.WriteFileAtomic(s.fs, path, []byte(data), fileMode); err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: path, Kind: kind, Language: lang, Format: format, Bytes: len(data)}, nil
}

// WriteAll writes doc once per format, stopping at the first failure.
func (s *Store) WriteAll(base string, kind burnin.Kind, doc cue.Document, formats []cue.Format) ([]Artifact, error) {
	out := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		a, err := s.WriteDocument(base, kind, doc, format)
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

// WriteSummary writes markdown to base.summary.md.
func (s *Store) WriteSummary(base, markdown string) (Artifact, error) {
	path := s.SummaryPath(base)
	data := strings.TrimRight(markdown, "\n") + "\n"
	if err := fileutil.WriteFileAtomic(s.fs, path, []byte(data), fileMode); err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: path, Kind: "summary", Bytes: len(data)}, nil
}

// ReadDocument loads and parses a subtitle file, inferring the format from
// its extension.
func ReadDocument(fs afero.Fs, path string, opts ...subformat.Option) (cue.Document, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	format, err := subformat.FormatFromPath(path)
	if err != nil {
		return cue.Document{}, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cue.Document{}, err
	}
	return subformat.Parse(string(data), format, opts...)
}

// Candidates lists burnable subtitle files for base in the store directory,
// sorted by name.
func (s *Store) Candidates(base string) ([]burnin.Candidate, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %q: %w", s.dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(paths)
	return burnin.ClassifyAll(paths, base), nil
}

// Exists reports whether path is present.
func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}
