package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aymerick/raymond"

	"github.com/hupe1980/hbswatch/internal/logging"
	"github.com/hupe1980/hbswatch/internal/version"
)

// Builtin validates templates with the raymond Handlebars parser and emits a
// self-registering module:
//
//	(function() {
//	  var templates = Handlebars.templates = Handlebars.templates || {};
//	  templates["index"] = Handlebars.compile("...");
//	})();
//
// Partials are registered with Handlebars.registerPartial instead. The
// page must load the full Handlebars build, not the runtime-only one.
type Builtin struct{}

// NewBuiltin returns the builtin compiler.
func NewBuiltin() *Builtin {
	return &Builtin{}
}

// Compile reads src, checks its syntax and renders the registering module.
// raymond only lexes Handlebars 3; templates using inline partials, partial
// blocks or decorators fall back to a block structure check.
func (b *Builtin) Compile(ctx context.Context, src string, opts Options) ([]byte, error) {
	data, err := os.ReadFile(src) //nolint:gosec // src is a watched template path
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", src, err)
	}

	source := string(data)

	if _, err := raymond.Parse(source); err != nil {
		if !usesModernSyntax(source) {
			return nil, fmt.Errorf("parsing template %s: %w", src, err)
		}

		if blockErr := checkBlocks(source); blockErr != nil {
			return nil, fmt.Errorf("parsing template %s: %w", src, blockErr)
		}

		logging.FromContext(ctx).Debug("syntax not fully validated, block structure only",
			slog.String("path", src),
			slog.String("parser_error", err.Error()),
		)
	}

	name := opts.Name
	if name == "" {
		name = TemplateName(src, opts.Extension)
	}

	return render(name, source, opts.Partial)
}

func render(name, source string, partial bool) ([]byte, error) {
	qName, err := jsString(name)
	if err != nil {
		return nil, err
	}

	qSource, err := jsString(source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "// Generated by %s. Do not edit.\n", version.Banner())
	buf.WriteString("(function() {\n")

	if partial {
		fmt.Fprintf(&buf, "  Handlebars.registerPartial(%s, %s);\n", qName, qSource)
	} else {
		buf.WriteString("  var templates = Handlebars.templates = Handlebars.templates || {};\n")
		fmt.Fprintf(&buf, "  templates[%s] = Handlebars.compile(%s);\n", qName, qSource)
	}

	buf.WriteString("})();\n")

	return buf.Bytes(), nil
}

// jsString quotes s as a JavaScript string literal. JSON string syntax is a
// subset of JavaScript's and the encoder also escapes U+2028/U+2029.
func jsString(s string) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("quoting %q: %w", s, err)
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
