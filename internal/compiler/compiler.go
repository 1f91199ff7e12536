// Package compiler turns Handlebars templates into JavaScript.
//
// Two implementations satisfy [Compiler]: [Builtin] validates the template
// with a Handlebars parser and emits a module that compiles it at load time,
// and [Exec] shells out to the handlebars npm precompiler.
package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/hbswatch/internal/output"
)

// Supported compiler kinds.
const (
	KindBuiltin = "builtin"
	KindExec    = "exec"
)

// Options controls how one template is compiled.
type Options struct {
	// Name is the registered template name. Derived from the source file
	// name with Extension stripped when empty.
	Name string

	// Extension is stripped from the file name to derive Name.
	Extension string

	// Partial registers the template as a partial.
	Partial bool
}

// Compiler converts one template source file into JavaScript.
type Compiler interface {
	Compile(ctx context.Context, src string, opts Options) ([]byte, error)
}

// Func adapts a plain function to the Compiler interface.
type Func func(ctx context.Context, src string, opts Options) ([]byte, error)

// Compile calls f.
func (f Func) Compile(ctx context.Context, src string, opts Options) ([]byte, error) {
	return f(ctx, src, opts)
}

// New returns the compiler for kind. Exec options are ignored by the
// builtin compiler.
func New(kind string, opts ...ExecOption) (Compiler, error) {
	switch kind {
	case KindBuiltin, "":
		return NewBuiltin(), nil
	case KindExec:
		return NewExec(opts...), nil
	default:
		return nil, fmt.Errorf("unknown compiler %q: must be one of builtin, exec", kind)
	}
}

// TemplateName returns the base name of path with ext removed.
func TemplateName(path, ext string) string {
	name := filepath.Base(path)
	if ext != "" && name != ext {
		name = strings.TrimSuffix(name, ext)
	}

	return name
}

// CompileToFile compiles src and writes the result to dst. Nothing is
// written when compilation fails.
func CompileToFile(ctx context.Context, c Compiler, src, dst string, opts Options, wopts ...output.FileWriterOption) error {
	js, err := c.Compile(ctx, src, opts)
	if err != nil {
		return err
	}

	return output.NewFileWriter(dst, wopts...).Write(js)
}
