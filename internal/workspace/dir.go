package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultBundleName is used when classes are put into a resource without bundles.
	DefaultBundleName = "main"

	classesDir = "classes"
	bundlesDir = "bundles"
	classExt   = ".class"
)

// LoadResource reads a resource directory. Each subdirectory of dir is a
// top-level bundle.
func LoadResource(dir string) (*Resource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", dir, err)
	}
	res := NewResource(filepath.Base(filepath.Clean(dir)))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		b, err := loadBundle(filepath.Join(dir, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}
		res.AddBundle(b)
	}
	return res, nil
}

func loadBundle(dir, name string) (*Bundle, error) {
	b := NewBundle(name)
	root := filepath.Join(dir, classesDir)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), classExt) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		className := strings.TrimSuffix(filepath.ToSlash(rel), classExt)
		b.Put(NewClassInfo(className, data))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", name, err)
	}

	children, err := os.ReadDir(filepath.Join(dir, bundlesDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load bundle %s: %w", name, err)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		child, err := loadBundle(filepath.Join(dir, bundlesDir, c.Name()), c.Name())
		if err != nil {
			return nil, err
		}
		b.AddChild(child)
	}
	return b, nil
}

// SaveResource writes res under dir, replacing each bundle's class tree so
// removed classes disappear from disk.
func SaveResource(res *Resource, dir string) error {
	for _, b := range res.Bundles() {
		if err := saveBundle(b, filepath.Join(dir, b.Name())); err != nil {
			return err
		}
	}
	return nil
}

func saveBundle(b *Bundle, dir string) error {
	root := filepath.Join(dir, classesDir)
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("save bundle %s: %w", b.Name(), err)
	}
	for _, c := range b.Classes() {
		path := filepath.Join(root, filepath.FromSlash(c.Name())+classExt)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("save bundle %s: %w", b.Name(), err)
		}
		if err := os.WriteFile(path, c.Bytes(), 0o644); err != nil {
			return fmt.Errorf("save class %s: %w", c.Name(), err)
		}
	}
	for _, child := range b.Children() {
		if err := saveBundle(child, filepath.Join(dir, bundlesDir, child.Name())); err != nil {
			return err
		}
	}
	return nil
}
