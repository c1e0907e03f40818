// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the stager project using Mage.
//
// Usage:
//
//	mage build          Compile the stager binary to bin/
//	mage test:all       Run all tests
//	mage test:short     Run tests without the sqlite and CLI packages
//	mage test:cover     Run all tests with a coverage profile
//	mage lint           Run go vet and golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install stager to GOPATH/bin
//	mage stats          Print Go LOC per package
package main
