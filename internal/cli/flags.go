package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/hbswatch/internal/config"
)

// registerTemplateFlags adds the flags selecting templates under the
// project root.
func registerTemplateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("dir", ".", "project root to scan and watch")
	f.StringSlice("watch", config.DefaultWatch, "glob patterns selecting templates (repeatable)")
	f.String("extension", config.DefaultExtension, "template extension stripped from template names")
}

// registerOutputFlags adds the flags controlling where and how artifacts
// are written.
func registerOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output-folder", "o", "", "directory receiving compiled templates (default: next to each template)")
	f.Bool("register-partials", false, "compile templates as partials")
}

// registerCompilerFlags adds the compiler selection flags.
func registerCompilerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("compiler", config.CompilerBuiltin, "template compiler: builtin, exec")
	f.String("handlebars-bin", config.DefaultHandlebarsBin, "handlebars precompiler executable (exec compiler)")
	f.String("handlebars-version", "", "semver constraint the precompiler must satisfy (exec compiler)")
}

// registerRunnerFlags registers every flag needed to build a runner.
func registerRunnerFlags(cmd *cobra.Command) {
	registerTemplateFlags(cmd)
	registerOutputFlags(cmd)
	registerCompilerFlags(cmd)
}
