package config

import (
	"errors"
	"fmt"
	"time"
)

// Default values applied by ApplyDefaults.
const (
	DefaultExtension  = ".cxx"
	DefaultSkipMarker = "ThirdParty"
)

// DefaultSearchPaths are the input search directories used when none are
// configured. They are templates over source_dir, build_dir and output_dir.
var DefaultSearchPaths = []string{
	"${build_dir}/ExternalData/Testing/Data/Input",
	"${build_dir}/ExternalData/Examples/Data/BrainWeb",
	"${build_dir}/Testing/Temporary",
	"${build_dir}/Modules/Nonunit/Review/test",
	"${build_dir}/ExternalData/Modules/Segmentation/LevelSetsv4/test/Baseline",
	"${build_dir}/ExternalData/Modules/IO/GE/test/Baseline",
	"${build_dir}/ExternalData/Examples/Filtering/test/Baseline",
	"${build_dir}/Examples/Segmentation/test",
	"${output_dir}/Art/Generated",
	"${source_dir}/Examples/Data",
}

// Settings are the resolved options of one run.
type Settings struct {
	SourceDir string
	BuildDir  string
	OutputDir string
	ExecDir   string

	SearchPaths []string
	SkipDirs    []string
	Extension   string

	BlockTimeout time.Duration
	Strict       bool
	Manifest     bool

	ReportPath   string
	SocketIOURL  string
	OTelEndpoint string
}

// Merge overlays every non-zero field of o onto s.
func (s *Settings) Merge(o *Settings) {
	if o == nil {
		return
	}
	setString(&s.SourceDir, o.SourceDir)
	setString(&s.BuildDir, o.BuildDir)
	setString(&s.OutputDir, o.OutputDir)
	setString(&s.ExecDir, o.ExecDir)
	if len(o.SearchPaths) > 0 {
		s.SearchPaths = append([]string(nil), o.SearchPaths...)
	}
	if len(o.SkipDirs) > 0 {
		s.SkipDirs = append([]string(nil), o.SkipDirs...)
	}
	setString(&s.Extension, o.Extension)
	if o.BlockTimeout != 0 {
		s.BlockTimeout = o.BlockTimeout
	}
	s.Strict = s.Strict || o.Strict
	s.Manifest = s.Manifest || o.Manifest
	setString(&s.ReportPath, o.ReportPath)
	setString(&s.SocketIOURL, o.SocketIOURL)
	setString(&s.OTelEndpoint, o.OTelEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyDefaults fills unset fields. The default search paths are expanded
// against the directory roots, so those must be set first.
func (s *Settings) ApplyDefaults() error {
	if s.Extension == "" {
		s.Extension = DefaultExtension
	}
	if len(s.SkipDirs) == 0 {
		s.SkipDirs = []string{DefaultSkipMarker}
	}
	if len(s.SearchPaths) == 0 {
		if s.BuildDir == "" {
			return errors.New("build_dir is required when no search paths are configured")
		}
		ectx := s.EvalContext()
		for _, tmpl := range DefaultSearchPaths {
			p, err := ExpandTemplate(tmpl, ectx)
			if err != nil {
				return fmt.Errorf("expanding default search path %q: %w", tmpl, err)
			}
			s.SearchPaths = append(s.SearchPaths, p)
		}
	}
	return nil
}

// Validate checks that the settings describe a runnable configuration.
func (s *Settings) Validate() error {
	var errs []error
	if s.SourceDir == "" {
		errs = append(errs, errors.New("source dir is required"))
	}
	if s.ExecDir == "" {
		errs = append(errs, errors.New("exec dir is required"))
	}
	if s.OutputDir == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	if s.Extension == "" {
		errs = append(errs, errors.New("extension must not be empty"))
	}
	if s.BlockTimeout < 0 {
		errs = append(errs, fmt.Errorf("block timeout must not be negative, got %s", s.BlockTimeout))
	}
	return errors.Join(errs...)
}
