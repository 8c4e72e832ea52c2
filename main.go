// Copyright 2025 Scrub Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidyops/scrub/internal/log"
	"github.com/tidyops/scrub/internal/pipeline"
	"github.com/tidyops/scrub/internal/sandbox"
	"github.com/tidyops/scrub/llm"
)

const Usage = `scrub <input.csv> [Flags]
Cleans a tabular dataset with an LLM-driven plan/generate/execute/repair loop
and prints the cleaned artifact path plus a feature engineering plan.

Model configuration comes from flags, a -model-config JSON file, or the
environment (API_TYPE, MODEL_NAME, BASE_URL and an API key in SCRUB_API_KEY
or the provider's usual variable).
`

func main() {
	flags := flag.NewFlagSet("scrub", flag.ExitOnError)

	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")
	flagOutput := flags.String("o", "", "Output path for the cleaned CSV. Defaults to cleaned_<name>.csv beside the input.")
	flagMaxRetries := flags.Int("max-retries", pipeline.DefaultMaxRetries, "Max repair attempts after a failed execution.")
	flagTimeout := flags.Duration("exec-timeout", sandbox.DefaultTimeout, "Wall-clock limit for each sandboxed execution.")

	flagModelConfig := flags.String("model-config", "", "Path to a model config JSON file.")
	flagAPIType := flags.String("api-type", "", "Model API type: openai, claude, ollama, ark, dashscope, deepseek.")
	flagModel := flags.String("model", "", "Model name.")
	flagBaseURL := flags.String("base-url", "", "Model API base URL.")
	flagKey := flags.String("key", "", "Model API key. Prefer SCRUB_API_KEY or the provider env variable.")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(2)
	}
	input := os.Args[1]
	if strings.HasPrefix(input, "-") {
		flags.Usage()
		os.Exit(2)
	}
	if len(os.Args) > 2 {
		flags.Parse(os.Args[2:])
	}

	if flagHelp != nil && *flagHelp {
		flags.Usage()
		os.Exit(0)
	}
	if flagVerbose != nil && *flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}

	modelConfig, err := resolveModelConfig(*flagModelConfig, *flagAPIType, *flagModel, *flagBaseURL, *flagKey)
	if err != nil {
		log.Error("%v\n", err)
		os.Exit(2)
	}

	oracle, err := llm.NewClient(modelConfig)
	if err != nil {
		log.Error("Failed to create model client: %v\n", err)
		os.Exit(2)
	}

	output := *flagOutput
	if output == "" {
		output = defaultOutputPath(input)
	}

	runner := sandbox.NewRunner()
	runner.Timeout = *flagTimeout

	orch := pipeline.New(oracle, runner,
		pipeline.WithMaxRetries(*flagMaxRetries),
		pipeline.WithListener(pipeline.LogListener{}),
	)

	result, err := orch.Run(context.Background(), input, output)
	if err != nil {
		log.Error("Pipeline aborted: %v\n", err)
		os.Exit(1)
	}

	if !result.Succeeded() {
		log.Error("Cleaning failed after %d attempts. Last error:\n%s\n", result.Attempts, result.Diagnostic)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Cleaned dataset written to: %s\n", result.ArtifactPath)
	if result.FeaturePlan != "" {
		fmt.Fprintf(os.Stdout, "\nFeature engineering plan:\n%s\n", result.FeaturePlan)
	}
}

// resolveModelConfig layers flag values over a config file over the
// environment. Flags win.
func resolveModelConfig(configPath, apiType, model, baseURL, key string) (llm.ModelConfig, error) {
	cfg := llm.ModelConfig{
		APIType:   llm.NewModelType(os.Getenv("API_TYPE")),
		ModelName: os.Getenv("MODEL_NAME"),
		BaseURL:   os.Getenv("BASE_URL"),
	}

	if configPath != "" {
		loaded, err := llm.LoadModelConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load model config %s: %v", configPath, err)
		}
		cfg = loaded
	}

	if apiType != "" {
		cfg.APIType = llm.NewModelType(apiType)
	}
	if model != "" {
		cfg.ModelName = model
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if key != "" {
		cfg.APIKey = key
	}
	cfg.APIKey = llm.ResolveAPIKey(cfg)

	if cfg.APIType == llm.ModelTypeUnknown {
		return cfg, fmt.Errorf("a model API type is required (-api-type flag, model config file, or env API_TYPE)")
	}
	if cfg.ModelName == "" {
		return cfg, fmt.Errorf("a model name is required (-model flag, model config file, or env MODEL_NAME)")
	}
	if cfg.APIKey == "" && cfg.APIType != llm.ModelTypeOllama {
		return cfg, fmt.Errorf("an API key is required (-key flag, model config file, or env SCRUB_API_KEY)")
	}
	return cfg, nil
}

func defaultOutputPath(input string) string {
	dir := filepath.Dir(input)
	return filepath.Join(dir, "cleaned_"+filepath.Base(input))
}
