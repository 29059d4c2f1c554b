// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/codemod/cmd/codemod/opts"
	"github.com/walteh/codemod/pkg/executor"
	"github.com/walteh/codemod/pkg/log"
)

func main() {
	root := &opts.RootOpts{
		Run: executor.RunConfigFromEnv(os.Getenv),
	}

	cmd := newRootCmd(root, defaultDeps())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		console := root.Console
		if console == nil {
			console = log.NewWithZerolog(os.Stderr, zerolog.Nop())
		}
		console.Error(err.Error())
		os.Exit(1)
	}
}
