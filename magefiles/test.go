// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// slowPackages touch the filesystem and spawn processes.
var slowPackages = []string{
	modulePath + "/internal/sqlite",
	modulePath + "/internal/cli",
}

// Test groups test targets (all, short, cover).
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Short runs the tests of every package except the slow ones.
func (Test) Short() error {
	pkgs, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return err
	}
	var fast []string
	for pkg := range strings.SplitSeq(pkgs, "\n") {
		if pkg != "" && !slices.Contains(slowPackages, pkg) {
			fast = append(fast, pkg)
		}
	}
	if len(fast) == 0 {
		fmt.Println("No test packages found.")
		return nil
	}
	return sh.RunV(binGo, append([]string{"test"}, fast...)...)
}

// Cover runs every test with the race detector and writes coverage.out.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-race", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverProfile)
}
