package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/parser"

	"github.com/roach88/bcnf/internal/schema"
)

// CompileAll compiles every field under the top-level "relation" struct,
// in declaration order. Errors for individual relations are collected;
// relations that compile are still returned.
func CompileAll(value cue.Value) ([]schema.Schema, []error) {
	relationsVal := value.LookupPath(cue.ParsePath("relation"))
	if !relationsVal.Exists() {
		return nil, []error{&CompileError{Field: "relation", Message: "no relations found", Pos: value.Pos()}}
	}

	iter, err := relationsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		schemas []schema.Schema
		errs    []error
	)
	for iter.Next() {
		s, err := CompileRelation(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("relation.%s: %w", iter.Label(), err))
			continue
		}
		schemas = append(schemas, *s)
	}

	if len(schemas) == 0 && len(errs) == 0 {
		errs = append(errs, &CompileError{Field: "relation", Message: "no relations found", Pos: relationsVal.Pos()})
	}
	return schemas, errs
}

// CompileString compiles CUE source held in memory.
// filename is used only for error positions.
func CompileString(src, filename string) ([]schema.Schema, []error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return CompileAll(value)
}

// LoadPath loads a single .cue file or every .cue file of a directory as
// one CUE instance and compiles its relations. Directory files without a
// package clause are loaded by name; otherwise the directory's package is
// loaded.
func LoadPath(path string) ([]schema.Schema, []error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, []error{fmt.Errorf("accessing %s: %w", path, err)}
	}

	dir, args := filepath.Dir(path), []string{filepath.Base(path)}
	if info.IsDir() {
		dir = path
		args, err = directoryArgs(path)
		if err != nil {
			return nil, []error{err}
		}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", path)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	return CompileAll(value)
}

// FindFiles returns the .cue files directly inside dir, sorted by name.
func FindFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// directoryArgs returns the load arguments for dir: "." when any file
// declares a package, else every file name.
func directoryArgs(dir string) ([]string, error) {
	files, err := FindFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files in %s", dir)
	}

	args := make([]string, 0, len(files))
	for _, file := range files {
		pkg, err := packageName(file)
		if err != nil {
			return nil, err
		}
		if pkg != "" {
			return []string{"."}, nil
		}
		args = append(args, filepath.Base(file))
	}
	return args, nil
}

// packageName reads only the package clause of a CUE file.
func packageName(file string) (string, error) {
	f, err := parser.ParseFile(file, nil, parser.PackageClauseOnly)
	if err != nil {
		return "", formatCUEError(err)
	}
	return f.PackageName(), nil
}
