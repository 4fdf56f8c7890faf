package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"study-planner/internal/extract"
	"study-planner/internal/extract/extracttest"
	"study-planner/internal/llm"
	"study-planner/internal/prompt"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return s.text, s.err
}

var testProfiles = Profiles{StudyPlan: "plan-model", MaterialAnalysis: "analysis-model"}

func newTestPlanner(t *testing.T, ex TextExtractor) (*Planner, *mockClient, *Session) {
	t.Helper()
	client := &mockClient{}
	if ex == nil {
		ex = extract.New()
	}
	p := New(ex, client, testProfiles, Options{PreviewChars: 4})
	store := NewSessionStore(time.Minute)
	return p, client, store.Create()
}

func strPtr(s string) *string { return &s }

func fillLinearAlgebra(t *testing.T, p *Planner, s *Session) {
	t.Helper()
	require.NoError(t, p.UpdateForm(s, FormInput{
		Topic:    strPtr("Linear Algebra basics"),
		Duration: "1 Week",
		Pace:     "Fast",
		Style:    "Practice-heavy",
	}))
}

func TestGeneratePlanBlankTopicMakesNoCall(t *testing.T) {
	for _, topic := range []string{"", "   ", "\n\t "} {
		p, client, s := newTestPlanner(t, nil)
		require.NoError(t, p.UpdateForm(s, FormInput{Topic: strPtr(topic)}))

		out := p.GeneratePlan(context.Background(), s)

		assert.Equal(t, CodeValidation, out.Code)
		assert.Equal(t, LevelWarning, out.Level)
		assert.Equal(t, "Please enter a study topic.", out.Message)
		client.AssertNumberOfCalls(t, "Generate", 0)
	}
}

func TestGeneratePlanSendsComposedPrompt(t *testing.T) {
	p, client, s := newTestPlanner(t, nil)
	fillLinearAlgebra(t, p, s)

	want := llm.Request{
		Model:   "plan-model",
		Payload: "Create a 1 Week study plan with a Fast learning pace focusing on Practice-heavy learning. Topic: Linear Algebra basics",
	}
	client.On("Generate", mock.Anything, want).Return("## Day 1\nVectors", nil).Once()

	out := p.GeneratePlan(context.Background(), s)

	require.True(t, out.OK(), "unexpected outcome %+v", out)
	assert.Equal(t, LevelSuccess, out.Level)
	assert.Equal(t, "Your Study Plan", out.Title)
	assert.Equal(t, "## Day 1\nVectors", out.Text)
	client.AssertExpectations(t)
}

func TestGeneratePlanFailureKeepsForm(t *testing.T) {
	p, client, s := newTestPlanner(t, nil)
	fillLinearAlgebra(t, p, s)
	client.On("Generate", mock.Anything, mock.Anything).
		Return("", &llm.Error{Kind: llm.KindQuota, Message: "quota exceeded"}).Once()

	before := s.Form()
	out := p.GeneratePlan(context.Background(), s)

	assert.Equal(t, CodeGenerationFailed, out.Code)
	assert.Equal(t, LevelError, out.Level)
	assert.Contains(t, out.Message, "quota exceeded")
	assert.Equal(t, before, s.Form())
	assert.Equal(t, "Linear Algebra basics", s.Form().Topic)
	client.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGeneratePlanEmptyResult(t *testing.T) {
	p, client, s := newTestPlanner(t, nil)
	fillLinearAlgebra(t, p, s)
	client.On("Generate", mock.Anything, mock.Anything).Return("", llm.ErrEmptyResult).Once()

	out := p.GeneratePlan(context.Background(), s)

	assert.Equal(t, CodeEmptyResult, out.Code)
	assert.Equal(t, LevelWarning, out.Level)
	assert.Equal(t, "No response generated. Please try again.", out.Message)
	assert.Empty(t, out.Text)
}

func TestAnalyzeWithoutUploadIsInert(t *testing.T) {
	p, client, s := newTestPlanner(t, nil)

	out := p.AnalyzeMaterial(context.Background(), s)

	assert.Equal(t, CodeNoUpload, out.Code)
	assert.Equal(t, LevelWarning, out.Level)
	client.AssertNumberOfCalls(t, "Generate", 0)
}

func TestAnalyzeBlankExtractionWarns(t *testing.T) {
	p, client, s := newTestPlanner(t, stubExtractor{text: "  \n "})

	up := p.Upload(context.Background(), s, "scan.pdf", []byte("%PDF-1.4"))
	require.True(t, up.OK())

	out := p.AnalyzeMaterial(context.Background(), s)
	assert.Equal(t, CodeValidation, out.Code)
	assert.Equal(t, "No text extracted from the uploaded PDF.", out.Message)
	client.AssertNumberOfCalls(t, "Generate", 0)
}

func TestUploadThenAnalyzeUsesExtractedText(t *testing.T) {
	p, client, s := newTestPlanner(t, nil)

	up := p.Upload(context.Background(), s, "notes.pdf", extracttest.BuildPDF("A", "B"))
	require.True(t, up.OK(), "upload failed: %+v", up)
	assert.Equal(t, LevelInfo, up.Level)
	assert.Equal(t, "AB", up.Preview)

	client.On("Generate", mock.Anything, llm.Request{Model: "analysis-model", Payload: "AB"}).
		Return("Key ideas: A then B", nil).Once()

	out := p.AnalyzeMaterial(context.Background(), s)
	require.True(t, out.OK(), "unexpected outcome %+v", out)
	assert.Equal(t, "Insights from Uploaded Material", out.Title)
	client.AssertExpectations(t)
}

func TestUploadFailureClearsPreviousText(t *testing.T) {
	p, client, s := newTestPlanner(t, nil)
	fillLinearAlgebra(t, p, s)

	require.True(t, p.Upload(context.Background(), s, "good.pdf", extracttest.BuildPDF("A")).OK())

	out := p.Upload(context.Background(), s, "bad.pdf", []byte("definitely not a pdf"))
	assert.Equal(t, CodeExtractionFailed, out.Code)
	assert.Equal(t, LevelError, out.Level)
	assert.Contains(t, out.Message, "Failed to extract text from PDF:")

	last, ok := s.LastUpload()
	require.True(t, ok)
	assert.Equal(t, "bad.pdf", last.FileName)
	assert.Empty(t, last.Text)
	assert.NotEmpty(t, last.Err)
	assert.Equal(t, "Linear Algebra basics", s.Form().Topic, "form must survive a failed upload")

	analyze := p.AnalyzeMaterial(context.Background(), s)
	assert.Equal(t, CodeValidation, analyze.Code)
	client.AssertNumberOfCalls(t, "Generate", 0)
}

func TestUploadReplacesEarlierText(t *testing.T) {
	p, _, s := newTestPlanner(t, nil)

	require.True(t, p.Upload(context.Background(), s, "first.pdf", extracttest.BuildPDF("first")).OK())
	require.True(t, p.Upload(context.Background(), s, "second.pdf", extracttest.BuildPDF("second")).OK())

	last, ok := s.LastUpload()
	require.True(t, ok)
	assert.Equal(t, "second", last.Text)
	assert.Equal(t, "second.pdf", last.FileName)
}

func TestUploadPreviewIsTruncated(t *testing.T) {
	p, _, s := newTestPlanner(t, stubExtractor{text: "héllo world"})

	out := p.Upload(context.Background(), s, "notes.pdf", []byte("x"))
	assert.Equal(t, "héll", out.Preview)

	view := p.View(s)
	require.NotNil(t, view.Upload)
	assert.Equal(t, "héll", view.Upload.Preview)
	assert.Equal(t, 11, view.Upload.TextChars)
}

func TestUploadExtractorErrorSurfaced(t *testing.T) {
	p, _, s := newTestPlanner(t, stubExtractor{err: &extract.ExtractionError{Cause: extract.ErrEncrypted}})

	out := p.Upload(context.Background(), s, "locked.pdf", []byte("x"))
	assert.Equal(t, CodeExtractionFailed, out.Code)
	assert.Contains(t, out.Message, "encrypted")
}

type blockingClient struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   map[string]int
}

func (b *blockingClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	b.mu.Lock()
	b.calls[req.Model]++
	b.mu.Unlock()
	if req.Model == testProfiles.StudyPlan {
		b.started <- struct{}{}
		<-b.release
	}
	return "done", nil
}

func TestSameActionRejectedWhileInFlightOtherActionIndependent(t *testing.T) {
	client := &blockingClient{started: make(chan struct{}), release: make(chan struct{}), calls: map[string]int{}}
	p := New(stubExtractor{text: "material"}, client, testProfiles, Options{})
	s := NewSessionStore(time.Minute).Create()
	require.NoError(t, p.UpdateForm(s, FormInput{Topic: strPtr("Graphs")}))
	require.True(t, p.Upload(context.Background(), s, "m.pdf", []byte("x")).OK())

	first := make(chan Outcome, 1)
	go func() { first <- p.GeneratePlan(context.Background(), s) }()
	<-client.started

	second := p.GeneratePlan(context.Background(), s)
	assert.Equal(t, CodeBusy, second.Code)

	analysis := p.AnalyzeMaterial(context.Background(), s)
	assert.True(t, analysis.OK(), "analyze must not wait for plan: %+v", analysis)

	close(client.release)
	assert.True(t, (<-first).OK())

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.calls[testProfiles.StudyPlan])
	assert.Equal(t, 1, client.calls[testProfiles.MaterialAnalysis])
}

func TestUpdateFormValidation(t *testing.T) {
	p, _, s := newTestPlanner(t, nil)

	err := p.UpdateForm(s, FormInput{Duration: "2 Weeks"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidForm))
	assert.Equal(t, DefaultForm(), s.Form(), "rejected update must not change the form")

	require.NoError(t, p.UpdateForm(s, FormInput{Pace: "Medium"}))
	assert.Equal(t, prompt.PaceMedium, s.Form().Pace)
	assert.Equal(t, prompt.DurationWeek, s.Form().Duration)
	assert.Equal(t, "", s.Form().Topic)
}
