package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/exrun/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot holds the literal directory roots; everything else is decoded
// from Remain once the roots are known.
type fileRoot struct {
	SourceDir string   `hcl:"source_dir,optional"`
	BuildDir  string   `hcl:"build_dir,optional"`
	OutputDir string   `hcl:"output_dir,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

type fileBody struct {
	ExecDir      string          `hcl:"exec_dir,optional"`
	SearchPaths  []string        `hcl:"search_paths,optional"`
	SkipDirs     []string        `hcl:"skip_dirs,optional"`
	Extension    string          `hcl:"extension,optional"`
	BlockTimeout string          `hcl:"block_timeout,optional"`
	Strict       bool            `hcl:"strict,optional"`
	Manifest     bool            `hcl:"manifest,optional"`
	Report       *reportBlock    `hcl:"report,block"`
	Telemetry    *telemetryBlock `hcl:"telemetry,block"`
}

type reportBlock struct {
	Path     string `hcl:"path,optional"`
	SocketIO string `hcl:"socketio,optional"`
}

type telemetryBlock struct {
	Endpoint string `hcl:"endpoint"`
}

// Load reads the settings file at path.
func Load(ctx context.Context, path string) (*Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading settings file.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes settings from HCL source; filename is used in diagnostics.
func Parse(src []byte, filename string) (*Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	s := &Settings{SourceDir: root.SourceDir, BuildDir: root.BuildDir, OutputDir: root.OutputDir}

	var body fileBody
	if diags := gohcl.DecodeBody(root.Remain, s.EvalContext(), &body); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	s.ExecDir = body.ExecDir
	s.SearchPaths = body.SearchPaths
	s.SkipDirs = body.SkipDirs
	s.Extension = body.Extension
	s.Strict = body.Strict
	s.Manifest = body.Manifest
	if body.BlockTimeout != "" {
		d, err := time.ParseDuration(body.BlockTimeout)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid block_timeout: %w", filename, err)
		}
		s.BlockTimeout = d
	}
	if body.Report != nil {
		s.ReportPath = body.Report.Path
		s.SocketIOURL = body.Report.SocketIO
	}
	if body.Telemetry != nil {
		s.OTelEndpoint = body.Telemetry.Endpoint
	}
	return s, nil
}

// EvalContext exposes the directory roots and the process environment to
// expressions as source_dir, build_dir, output_dir and env.
func (s *Settings) EvalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"source_dir": cty.StringVal(s.SourceDir),
			"build_dir":  cty.StringVal(s.BuildDir),
			"output_dir": cty.StringVal(s.OutputDir),
			"env":        cty.ObjectVal(env),
		},
	}
}

// ExpandTemplate evaluates an HCL string template such as
// "${build_dir}/Testing/Temporary".
func ExpandTemplate(tmpl string, ectx *hcl.EvalContext) (string, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(tmpl), "<template>", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return "", diags
	}
	v, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return "", diags
	}
	if v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return "", fmt.Errorf("template %q did not produce a string", tmpl)
	}
	return v.AsString(), nil
}
