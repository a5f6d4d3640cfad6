// Package config loads run settings from an optional HCL file.
//
// Directory roots (source_dir, build_dir, output_dir) must be literal strings.
// Every other attribute is an expression evaluated with those roots and the
// process environment in scope:
//
//	source_dir = "/src/ITK"
//	build_dir  = "/build/ITK"
//	output_dir = "/out/guide"
//
//	exec_dir     = "${build_dir}/bin"
//	search_paths = ["${build_dir}/ExternalData/Testing/Data/Input", "${env.HOME}/images"]
//	skip_dirs    = ["ThirdParty"]
//
//	report {
//	  path     = "${output_dir}/run.yaml"
//	  socketio = "http://localhost:3000/exrun"
//	}
//
// Command-line flags override file values; Settings.ApplyDefaults fills the
// rest, including the default search path list.
package config
