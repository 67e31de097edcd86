// Command cqlgen scaffolds a new internal/backend result-type generator.
// The command tree (cqlgen backend new <name>) follows demo/cmd/main.go's
// rootCmd/subCmd/AddCommand/Execute shape; the scaffolding itself — fill a
// Go template with a handful of computed names and write it under
// internal/backend/ — is cmd/morfx-provider-gen/main.go's technique,
// rehosted on cobra flags/args instead of that command's stdlib flag
// parsing.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
)

const generatorTemplate = `package backend

// {{.TypeName}} implements the {{.TargetConst}} result type.
type {{.TypeName}} struct{}

func (g *{{.TypeName}}) Name() Target { return {{.TargetConst}} }

func (g *{{.TypeName}}) Generate(in Input) ([]Output, error) {
	// TODO: walk in.Tree / in.Registries and build the output body.
	return []Output{
		{Name: "{{.OutputName}}", Content: ""},
	}, nil
}
`

type templateData struct {
	TypeName    string
	TargetConst string
	OutputName  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cqlgen",
		Short: "Scaffolding tool for cqlc backend generators",
		Long:  "Generates a skeleton internal/backend.Generator implementation for a new --rt target.",
	}

	backendCmd := &cobra.Command{
		Use:   "backend",
		Short: "Manage backend result-type generators",
	}

	var outDir string
	newCmd := &cobra.Command{
		Use:   "new <target-name>",
		Short: "Scaffold a new backend.Generator for the given --rt target name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scaffoldGenerator(args[0], outDir)
		},
	}
	newCmd.Flags().StringVar(&outDir, "out_dir", "internal/backend", "Directory the generator file is written to.")

	backendCmd.AddCommand(newCmd)
	root.AddCommand(backendCmd)
	return root
}

func scaffoldGenerator(target, outDir string) error {
	name := strings.ToLower(target)
	if name == "" {
		return fmt.Errorf("cqlgen: target name must not be empty")
	}

	data := templateData{
		TypeName:    exportedName(name) + "Generator",
		TargetConst: "Target" + exportedName(name),
		OutputName:  name + ".out",
	}

	tmpl, err := template.New("generator").Parse(generatorTemplate)
	if err != nil {
		return fmt.Errorf("cqlgen: parsing template: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("cqlgen: creating %s: %w", outDir, err)
	}

	path := filepath.Join(outDir, name+".go")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cqlgen: creating %s: %w", path, err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("cqlgen: executing template: %w", err)
	}

	fmt.Printf("scaffolded %s generator at %s\n", data.TypeName, path)
	fmt.Printf("next: add %s to the Target const block and NewRegistry in internal/backend/backend.go\n", data.TargetConst)
	return nil
}

// exportedName turns a snake_case target name into an exported Go
// identifier fragment: "schema_upgrade" -> "SchemaUpgrade".
func exportedName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
