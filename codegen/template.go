package codegen

import "text/template"

// runtimeAlias is the import name generated files use for the card package.
const runtimeAlias = "cardwire"

type importSpec struct {
	Alias string
	Path  string
}

type registrarData struct {
	Package   string
	Imports   []importSpec
	Name      string
	Owner     string
	Marker    string
	Scope     string
	Runtime   string
	Registers []string
}

type aggregateData struct {
	Package       string
	Runtime       string
	RuntimeImport string
	Registrars    []string
}

var registrarTemplate = template.Must(template.New("registrar").Parse(`// Code generated by cardwire. DO NOT EDIT.
{{- if .Owner}}
// {{.Marker}} {{.Owner}}
{{- end}}

package {{.Package}}

import (
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

func init() {
	{{.Runtime}}.AddRegistrar("{{.Name}}", {{.Name}})
}

// {{.Name}} registers the cards declared in {{.Scope}}.
func {{.Name}}(reg *{{.Runtime}}.Registry) {
{{- range .Registers}}
	reg.Register({{.}})
{{- end}}
}
`))

var aggregateTemplate = template.Must(template.New("aggregate").Parse(`// Code generated by cardwire. DO NOT EDIT.

package {{.Package}}

import (
	{{.Runtime}} "{{.RuntimeImport}}"
)

// InitAll invokes every registrar generated into this package.
func InitAll(reg *{{.Runtime}}.Registry) {
{{- range .Registrars}}
	{{.}}(reg)
{{- end}}
}
`))
