// Package localfs turns files, directories and archives on disk into scan
// resources.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/format"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"
	"golift.io/xtractr"
)

// DefaultMaxArchiveDepth bounds nested archive extraction.
const DefaultMaxArchiveDepth = 10

// sniffLength is enough for every matcher of h2non/filetype.
const sniffLength = 262

var skippableDirectoryNames = []string{"node_modules", ".yarn", ".yarn-cache", ".npm", "venv", "vendor", ".git", "bower_components"}

type Options struct {
	// Archives enables extraction of zip, tar, 7z and similar files.
	Archives        bool
	MaxArchiveDepth int
}

func DefaultOptions() Options {
	return Options{Archives: true, MaxArchiveDepth: DefaultMaxArchiveDepth}
}

// File is a resource backed by a file on disk. Its content is read on demand.
type File struct {
	path string
	name string
	mime string
}

func (f *File) URL() string      { return f.name }
func (f *File) MimeType() string { return f.mime }

func (f *File) FetchContent(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// #nosec G304 - paths come from the user or from archives we extracted ourselves
	content, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed reading %s: %w", f.name, err)
	}
	return string(content), nil
}

// Collection holds the resources found on disk and the temp directories
// backing extracted archive members. Close it once the scan is done.
type Collection struct {
	Resources []types.Resource
	tempDirs  []string
}

func (c *Collection) Close() error {
	var errs []error
	for _, dir := range c.tempDirs {
		errs = append(errs, os.RemoveAll(dir))
	}
	c.tempDirs = nil
	return errors.Join(errs...)
}

// Collect walks paths in order. Directories are walked recursively, skipping
// dependency folders. Known binary files are skipped.
func Collect(paths []string, opts Options) (*Collection, error) {
	if opts.MaxArchiveDepth <= 0 {
		opts.MaxArchiveDepth = DefaultMaxArchiveDepth
	}

	c := &Collection{}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("cannot scan %s: %w", p, err)
		}
		if err := c.walk(p, "", opts, 1); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	log.Debug().Int("resources", len(c.Resources)).Msg("Collected local files")
	return c, nil
}

// walk adds everything below root. Names of archive members are prefixed
// with their archive, e.g. bundle.zip!/static/app.js.
func (c *Collection) walk(root string, prefix string, opts Options, depth int) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Cannot access path, skipping")
			return nil
		}

		if d.IsDir() {
			if path != root && slices.Contains(skippableDirectoryNames, d.Name()) {
				log.Debug().Str("dir", path).Msg("Skipped dependency directory")
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		name := displayName(root, path, prefix)
		c.addFile(path, name, opts, depth)
		return nil
	})
}

func displayName(root string, path string, prefix string) string {
	if prefix == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return prefix + "!/" + filepath.ToSlash(rel)
}

func (c *Collection) addFile(path string, name string, opts Options, depth int) {
	head, err := readHead(path)
	if err != nil {
		log.Debug().Err(err).Str("file", name).Msg("Cannot read file, skipping")
		return
	}

	if filetype.IsArchive(head) {
		if !opts.Archives {
			log.Trace().Str("file", name).Msg("Skipped archive, extraction disabled")
			return
		}
		c.addArchive(path, name, head, opts, depth)
		return
	}

	kind, _ := filetype.Match(head)
	if kind != filetype.Unknown {
		log.Trace().Str("file", name).Str("type", kind.MIME.Value).Msg("Skipped binary file")
		return
	}

	c.Resources = append(c.Resources, &File{path: path, name: name, mime: mimeFromName(path)})
}

func (c *Collection) addArchive(path string, name string, head []byte, opts Options, depth int) {
	if depth > opts.MaxArchiveDepth {
		log.Debug().Str("file", name).Int("recursionDepth", depth).Msg("Max archive recursion depth reached, skipping further extraction")
		return
	}

	kind, err := filetype.Match(head)
	if err != nil {
		log.Debug().Err(err).Str("file", name).Msg("Cannot determine archive type")
		return
	}

	outDir, err := os.MkdirTemp("", "harleek-archive-out-")
	if err != nil {
		log.Error().Err(err).Msg("Cannot create archive temp directory")
		return
	}
	c.tempDirs = append(c.tempDirs, outDir)

	// xtractr picks the decoder by extension, so make sure it matches the content.
	archivePath := path
	if !strings.EqualFold(strings.TrimPrefix(filepath.Ext(path), "."), kind.Extension) {
		archivePath = filepath.Join(outDir, "archive."+kind.Extension)
		if err := copyFile(path, archivePath); err != nil {
			log.Debug().Err(err).Str("file", name).Msg("Failed staging archive")
			return
		}
	}

	membersDir := filepath.Join(outDir, "members")
	if err := os.MkdirAll(membersDir, format.DirUserOnly); err != nil {
		log.Error().Err(err).Msg("Cannot create archive output directory")
		return
	}
	x := &xtractr.XFile{
		FilePath:  archivePath,
		OutputDir: membersDir,
		FileMode:  format.FileUserReadWrite,
		DirMode:   format.DirUserOnly,
	}

	_, files, _, err := xtractr.ExtractFile(x)
	if err != nil || files == nil {
		log.Debug().Err(err).Str("file", name).Msg("Unable to extract archive")
		return
	}

	log.Trace().Str("file", name).Int("files", len(files)).Int("depth", depth).Msg("Extracted archive")
	if err := c.walk(membersDir, name, opts, depth+1); err != nil {
		log.Debug().Err(err).Str("file", name).Msg("Failed walking extracted archive")
	}
}

func readHead(path string) ([]byte, error) {
	// #nosec G304 - see File.FetchContent
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

func copyFile(src string, dst string) error {
	// #nosec G304 - see File.FetchContent
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, format.FileUserReadWrite)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func mimeFromName(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
