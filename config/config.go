// Package config loads route definitions from YAML files into the record
// shape consumed by the router package.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Option configures the loader.
type Option func(*loader)

// WithLogger sets the logger used during loading. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

type loader struct {
	logger *zap.Logger
}

// Load reads route records from path. The path may be a single YAML file or
// a directory, in which case every *.yaml and *.yml file below it is read in
// lexical walk order and the records are concatenated.
func Load(path string, opts ...Option) ([]Record, error) {
	l := &loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route source %s: %w", path, err)
	}

	l.logger.Info("route generation started", zap.String("source", path))

	var records []Record
	if info.IsDir() {
		records, err = l.loadDir(path)
	} else {
		records, err = l.loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("route generation finished", zap.Int("routes", len(records)))
	return records, nil
}

func (l *loader) loadDir(dir string) ([]Record, error) {
	var records []Record

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			l.logger.Debug("reading folder", zap.String("path", path))
			return nil
		}
		if !isRouteFile(path) {
			l.logger.Debug("skipping file", zap.String("path", path))
			return nil
		}

		fileRecords, err := l.loadFile(path)
		if err != nil {
			return err
		}
		records = append(records, fileRecords...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk route directory %s: %w", dir, err)
	}

	return records, nil
}

func (l *loader) loadFile(path string) ([]Record, error) {
	l.logger.Debug("reading file", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file %s: %w", path, err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse route file %s: %w", path, err)
	}

	return file.Routes, nil
}

func isRouteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
