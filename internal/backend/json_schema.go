package backend

import (
	"encoding/json"

	"github.com/cqllang/cqlc/internal/ast"
)

// JSONSchemaGenerator emits a machine-readable description of every
// registered table and procedure — the `--rt json_schema` target, meant
// for tooling that consumes the compiled schema without re-parsing SQL.
type JSONSchemaGenerator struct{}

func (g *JSONSchemaGenerator) Name() Target { return TargetJSONSchema }

type jsonColumn struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"notNull"`
	IsKey   bool   `json:"isPrimaryKey,omitempty"`
}

type jsonTable struct {
	Name    string       `json:"name"`
	Columns []jsonColumn `json:"columns"`
}

type jsonProc struct {
	Name   string       `json:"name"`
	Args   []jsonColumn `json:"args"`
	HasDML bool         `json:"hasDML"`
}

type jsonDocument struct {
	Tables []jsonTable `json:"tables"`
	Procs  []jsonProc  `json:"procedures"`
}

func (g *JSONSchemaGenerator) Generate(in Input) ([]Output, error) {
	doc := jsonDocument{}
	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		if table.Deleted {
			continue
		}
		jt := jsonTable{Name: table.Name}
		for _, c := range table.Columns {
			jt.Columns = append(jt.Columns, jsonColumn{
				Name: c.Name, Type: coreTypeJSONName(c.Type), NotNull: c.NotNull, IsKey: c.PK,
			})
		}
		doc.Tables = append(doc.Tables, jt)
	}
	for _, name := range in.Registries.Procs.Keys() {
		proc, _ := in.Registries.Procs.Lookup(name)
		jp := jsonProc{Name: proc.Name, HasDML: proc.HasDML}
		for _, f := range proc.Formals {
			jp.Args = append(jp.Args, jsonColumn{Name: f.Name, Type: coreTypeJSONName(f.Type), NotNull: f.NotNull})
		}
		doc.Procs = append(doc.Procs, jp)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return []Output{{Name: "schema.json", Content: string(out) + "\n"}}, nil
}

func coreTypeJSONName(t ast.CoreType) string {
	switch t {
	case ast.TypeBool:
		return "bool"
	case ast.TypeInt32:
		return "integer"
	case ast.TypeInt64:
		return "long"
	case ast.TypeReal:
		return "real"
	case ast.TypeText:
		return "text"
	case ast.TypeBlob:
		return "blob"
	case ast.TypeObject:
		return "object"
	default:
		return "unknown"
	}
}
