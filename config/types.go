package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one parsed route definition, in the shape the router package
// consumes. Methods stays the raw comma-separated declaration; splitting and
// normalizing it is the route table's job.
type Record struct {
	Name         string
	Path         string
	Controller   string
	Middleware   string
	Methods      string
	Requirements map[string]string
	Language     string
}

// recordFields is the on-disk field set of a route entry.
type recordFields struct {
	Path         string            `yaml:"path"`
	Controller   string            `yaml:"controller"`
	Middleware   string            `yaml:"middleware"`
	Methods      string            `yaml:"methods"`
	Requirements map[string]string `yaml:"requirements"`
	Language     string            `yaml:"language"`
}

// routesFile is the top-level shape of a route definition file.
type routesFile struct {
	Routes []Record `yaml:"routes"`
}

// UnmarshalYAML decodes the single-key mapping form used in route files,
// where each entry maps the route name to its fields:
//
//	routes:
//	  - home:
//	      path: /
//	      controller: home_controller::index
//	      methods: get
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("route entry must be a single-key mapping (name -> fields), line %d", node.Line)
	}

	var name string
	if err := node.Content[0].Decode(&name); err != nil {
		return fmt.Errorf("failed to decode route name: %w", err)
	}

	var fields recordFields
	if err := node.Content[1].Decode(&fields); err != nil {
		return fmt.Errorf("failed to decode route %q: %w", name, err)
	}

	r.Name = name
	r.Path = fields.Path
	// Controller references accept "/" as a separator on disk and are
	// normalized to the "::" form.
	r.Controller = strings.ReplaceAll(fields.Controller, "/", "::")
	r.Middleware = fields.Middleware
	r.Methods = fields.Methods
	r.Requirements = fields.Requirements
	r.Language = fields.Language

	return nil
}
