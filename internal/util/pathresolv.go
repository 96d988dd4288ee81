//
// FrankyGo - UCI chess engine in GO for learning purposes
//
// MIT License
//
// Copyright (c) 2018-2020 Frank Kopp
//

package util

import (
	"os"
	"path/filepath"
)

// ResolveFile resolves the given path to an absolute, cleaned path.
// Relative paths are resolved against the current working directory.
func ResolveFile(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Clean(path), err
	}
	return filepath.Clean(filepath.Join(wd, path)), nil
}

// ResolveCreateFolder resolves the given folder path and creates it
// (including parents) if it does not yet exist.
func ResolveCreateFolder(path string) (string, error) {
	resolved, err := ResolveFile(path)
	if err != nil {
		return resolved, err
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return resolved, err
	}
	return resolved, nil
}
