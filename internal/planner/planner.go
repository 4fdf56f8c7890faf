package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"study-planner/internal/llm"
	"study-planner/internal/prompt"
	"study-planner/internal/shared/metrics"
	"study-planner/internal/shared/telemetry"
	"study-planner/internal/shared/util"
)

const (
	ActionUpload  = "upload"
	ActionPlan    = "plan"
	ActionAnalyze = "analyze"

	defaultPreviewChars = 500

	titlePlan     = "Your Study Plan"
	titleAnalysis = "Insights from Uploaded Material"
)

// TextExtractor turns uploaded document bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Profiles names the model used for each action.
type Profiles struct {
	StudyPlan        string
	MaterialAnalysis string
}

// Options tunes presentation details.
type Options struct {
	PreviewChars int
}

// Planner orchestrates the study planner actions for a session.
type Planner struct {
	extractor    TextExtractor
	llm          llm.Client
	profiles     Profiles
	previewChars int
	validate     *validator.Validate
}

// New wires a Planner.
func New(extractor TextExtractor, client llm.Client, profiles Profiles, opts Options) *Planner {
	preview := opts.PreviewChars
	if preview <= 0 {
		preview = defaultPreviewChars
	}
	return &Planner{
		extractor:    extractor,
		llm:          client,
		profiles:     profiles,
		previewChars: preview,
		validate:     newValidator(),
	}
}

// UpdateForm validates and stores a form update.
func (p *Planner) UpdateForm(s *Session, in FormInput) error {
	if err := p.validateForm(in); err != nil {
		return err
	}
	s.mu.Lock()
	s.form = applyForm(s.form, in)
	s.mu.Unlock()
	return nil
}

// Upload extracts text from a freshly uploaded PDF and makes it the session's
// current material. A failed extraction clears the previous text.
func (p *Planner) Upload(ctx context.Context, s *Session, fileName string, data []byte) Outcome {
	if !s.uploadMu.TryLock() {
		return busy(ActionUpload, "A file is already being processed. Please wait for it to finish.")
	}
	defer s.uploadMu.Unlock()

	metrics.IncUpload()
	start := time.Now()
	text, err := p.extractor.Extract(ctx, data)
	metrics.ObserveExtractionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)

	up := Upload{
		FileName:   fileName,
		SizeBytes:  int64(len(data)),
		SHA256:     util.SHA256Hex(data),
		UploadedAt: time.Now().UTC(),
	}
	fields := map[string]any{
		"session_id": s.ID,
		"file_name":  fileName,
		"size_bytes": up.SizeBytes,
		"sha256":     up.SHA256,
	}

	if err != nil {
		up.Err = err.Error()
		s.setUpload(up)
		metrics.IncExtractionFailed()
		fields["err"] = err
		telemetry.Error("planner.extract.failed", fields)
		return Outcome{
			Action:  ActionUpload,
			Code:    CodeExtractionFailed,
			Level:   LevelError,
			Message: "Failed to extract text from PDF: " + err.Error(),
		}
	}

	up.Text = text
	s.setUpload(up)
	fields["text_chars"] = utf8.RuneCountInString(text)
	telemetry.Info("planner.extract.complete", fields)
	return Outcome{
		Action:  ActionUpload,
		Code:    CodeOK,
		Level:   LevelInfo,
		Message: fmt.Sprintf("Extracted text from %s.", fileName),
		Preview: preview(text, p.previewChars),
	}
}

// GeneratePlan composes the study plan prompt from the current form and sends
// it with the study-plan profile.
func (p *Planner) GeneratePlan(ctx context.Context, s *Session) Outcome {
	if !s.planMu.TryLock() {
		metrics.IncGenerationRejected(ActionPlan)
		return busy(ActionPlan, "A study plan is already being generated. Please wait for it to finish.")
	}
	defer s.planMu.Unlock()

	form := s.Form()
	if strings.TrimSpace(form.Topic) == "" {
		metrics.IncGenerationRejected(ActionPlan)
		return warning(ActionPlan, CodeValidation, "Please enter a study topic.")
	}

	payload := prompt.Compose(form.Topic, form.Duration, form.Pace, form.Style)
	req, err := llm.NewRequest(p.profiles.StudyPlan, payload)
	if err != nil {
		return failure(ActionPlan, "Failed to generate study plan", err)
	}
	return p.generate(ctx, s, ActionPlan, req, titlePlan, "Failed to generate study plan")
}

// AnalyzeMaterial sends the extracted text of the latest upload with the
// material-analysis profile.
func (p *Planner) AnalyzeMaterial(ctx context.Context, s *Session) Outcome {
	if !s.analyzeMu.TryLock() {
		metrics.IncGenerationRejected(ActionAnalyze)
		return busy(ActionAnalyze, "Your study material is already being analyzed. Please wait for it to finish.")
	}
	defer s.analyzeMu.Unlock()

	up, ok := s.LastUpload()
	if !ok {
		metrics.IncGenerationRejected(ActionAnalyze)
		return warning(ActionAnalyze, CodeNoUpload, "Upload a PDF to analyze your study material.")
	}
	if strings.TrimSpace(up.Text) == "" {
		metrics.IncGenerationRejected(ActionAnalyze)
		return warning(ActionAnalyze, CodeValidation, "No text extracted from the uploaded PDF.")
	}

	req, err := llm.NewRequest(p.profiles.MaterialAnalysis, up.Text)
	if err != nil {
		return failure(ActionAnalyze, "Failed to analyze study material", err)
	}
	return p.generate(ctx, s, ActionAnalyze, req, titleAnalysis, "Failed to analyze study material")
}

func (p *Planner) generate(ctx context.Context, s *Session, action string, req llm.Request, title, failPrefix string) Outcome {
	metrics.IncGenerationStarted(action)
	start := time.Now()
	text, err := p.llm.Generate(ctx, req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.ObserveGenerationDurationMs(elapsed)

	fields := map[string]any{
		"session_id":    s.ID,
		"action":        action,
		"model":         req.Model,
		"payload_chars": utf8.RuneCountInString(req.Payload),
		"duration_ms":   elapsed,
	}

	var out Outcome
	var genErr *llm.Error
	switch {
	case errors.Is(err, llm.ErrEmptyResult):
		metrics.IncGenerationEmpty(action)
		out = warning(action, CodeEmptyResult, "No response generated. Please try again.")
	case errors.As(err, &genErr):
		metrics.IncGenerationFailed(action)
		fields["error_kind"] = string(genErr.Kind)
		out = failure(action, failPrefix, err)
	case err != nil:
		metrics.IncGenerationFailed(action)
		out = failure(action, failPrefix, err)
	default:
		metrics.IncGenerationSucceeded(action)
		out = Outcome{Action: action, Code: CodeOK, Level: LevelSuccess, Title: title, Text: text}
	}

	fields["code"] = string(out.Code)
	if err != nil {
		fields["err"] = err
		telemetry.Error("planner.generate.failed", fields)
	} else {
		telemetry.Info("planner.generate.complete", fields)
	}
	return out
}

// View is a read-only snapshot of a session for rendering.
type View struct {
	SessionID string      `json:"-"`
	Form      FormState   `json:"form"`
	Upload    *UploadView `json:"upload,omitempty"`
}

// UploadView summarises the latest upload.
type UploadView struct {
	FileName   string    `json:"fileName"`
	SizeBytes  int64     `json:"sizeBytes"`
	SHA256     string    `json:"sha256"`
	UploadedAt time.Time `json:"uploadedAt"`
	TextChars  int       `json:"textChars"`
	Preview    string    `json:"preview"`
	Error      string    `json:"error,omitempty"`
}

// View snapshots the session.
func (p *Planner) View(s *Session) View {
	v := View{SessionID: s.ID, Form: s.Form()}
	if up, ok := s.LastUpload(); ok {
		v.Upload = &UploadView{
			FileName:   up.FileName,
			SizeBytes:  up.SizeBytes,
			SHA256:     up.SHA256,
			UploadedAt: up.UploadedAt,
			TextChars:  utf8.RuneCountInString(up.Text),
			Preview:    preview(up.Text, p.previewChars),
			Error:      up.Err,
		}
	}
	return v
}

func preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
