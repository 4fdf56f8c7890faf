// Command prompttest runs one study-planner action against the configured
// Gemini models from the terminal, for checking prompts without the web UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"study-planner/internal/extract"
	"study-planner/internal/llm"
	"study-planner/internal/llm/gemini"
	"study-planner/internal/prompt"
	"study-planner/internal/shared/config"
)

func main() {
	cfg := config.Load()

	topic := flag.String("topic", "", "Study topic (plan mode)")
	duration := flag.String("duration", string(prompt.DurationWeek), "Study duration")
	pace := flag.String("pace", string(prompt.PaceSlow), "Learning pace")
	style := flag.String("style", string(prompt.StyleText), "Study style")
	pdfPath := flag.String("pdf", "", "Path to a PDF to analyze instead of generating a plan")
	model := flag.String("model", "", "Override the model for the selected mode")
	dryRun := flag.Bool("dry-run", false, "Print the payload without calling the API")
	outPath := flag.String("out", "", "Path to write the generated text (optional)")
	flag.Parse()

	req, err := buildRequest(cfg, *topic, *duration, *pace, *style, *pdfPath, *model)
	if err != nil {
		exitErr(err.Error())
	}

	if *dryRun {
		fmt.Printf("model: %s\n\n%s\n", req.Model, req.Payload)
		return
	}

	client, err := gemini.NewClient(gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GenerationTimeout,
	})
	if err != nil {
		exitErr(fmt.Sprintf("gemini client: %v (set GEMINI_API_KEY)", err))
	}

	text, err := client.Generate(context.Background(), req)
	if err != nil {
		exitErr(fmt.Sprintf("generate: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(text), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.WriteString(text); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if !strings.HasSuffix(text, "\n") {
		_, _ = os.Stdout.WriteString("\n")
	}
}

func buildRequest(cfg config.Config, topic, duration, pace, style, pdfPath, model string) (llm.Request, error) {
	if strings.TrimSpace(pdfPath) != "" {
		if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
			return llm.Request{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(pdfPath))
		}
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return llm.Request{}, fmt.Errorf("read pdf: %w", err)
		}
		text, err := extract.ExtractPDF(context.Background(), data)
		if err != nil {
			return llm.Request{}, fmt.Errorf("extract pdf text: %w", err)
		}
		return llm.NewRequest(firstNonEmpty(model, cfg.MaterialAnalysisModel), text)
	}

	if strings.TrimSpace(topic) == "" {
		return llm.Request{}, fmt.Errorf("either -topic or -pdf is required")
	}
	d, err := prompt.ParseDuration(duration)
	if err != nil {
		return llm.Request{}, err
	}
	p, err := prompt.ParsePace(pace)
	if err != nil {
		return llm.Request{}, err
	}
	s, err := prompt.ParseStyle(style)
	if err != nil {
		return llm.Request{}, err
	}
	return llm.NewRequest(firstNonEmpty(model, cfg.StudyPlanModel), prompt.Compose(topic, d, p, s))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
