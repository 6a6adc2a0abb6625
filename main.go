// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/serg-kovalev/go-dbscan-filter/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
