package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"contractbot-backend/internal/analysis"
	"contractbot-backend/internal/bootstrap"
	"contractbot-backend/internal/extract"
	"contractbot-backend/internal/shared/config"
	"contractbot-backend/internal/shared/telemetry"
)

func main() {
	telemetry.SetOutput(os.Stderr)
	cfg := config.Load()

	filePath := flag.String("file", "", "Path to a contract (.pdf, or plain text)")
	text := flag.String("text", "", "Contract text (alternative to -file)")
	outPath := flag.String("out", "", "Path to write the JSON envelope (optional)")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" && strings.TrimSpace(*text) == "" {
		exitErr("either -file or -text is required")
	}

	pipeline := bootstrap.BuildPipeline(config.NewRuntimeProvider(cfg.EnvFile))
	ctx := context.Background()

	var (
		result *analysis.AnalysisResult
		err    error
	)
	switch {
	case *filePath != "" && extract.IsPDFName(*filePath):
		data, readErr := os.ReadFile(*filePath)
		if readErr != nil {
			exitErr(fmt.Sprintf("read contract: %v", readErr))
		}
		result, _, err = pipeline.AnalyzePDF(ctx, data, int64(len(data)))
	case *filePath != "":
		data, readErr := os.ReadFile(*filePath)
		if readErr != nil {
			exitErr(fmt.Sprintf("read contract: %v", readErr))
		}
		result, _, err = pipeline.AnalyzeText(ctx, string(data))
	default:
		result, _, err = pipeline.AnalyzeText(ctx, *text)
	}

	pretty, marshalErr := json.MarshalIndent(analysis.NewEnvelope(result, err), "", "  ")
	if marshalErr != nil {
		exitErr(fmt.Sprintf("format json: %v", marshalErr))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if writeErr := os.WriteFile(*outPath, pretty, 0o644); writeErr != nil {
			exitErr(fmt.Sprintf("write output: %v", writeErr))
		}
	}
	if _, writeErr := os.Stdout.Write(pretty); writeErr != nil {
		exitErr(fmt.Sprintf("write stdout: %v", writeErr))
	}
	if err != nil {
		os.Exit(2)
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
