package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner/internal/planner"
	"study-planner/internal/prompt"
	"study-planner/internal/shared/server/middleware"
	"study-planner/internal/shared/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

const pageTemplate = "index.html"

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type message struct {
	Level planner.Level
	Text  string
}

type result struct {
	Title string
	HTML  template.HTML
}

type pageData struct {
	Form       planner.FormState
	Durations  []prompt.Duration
	Paces      []prompt.Pace
	Styles     []prompt.Style
	Upload     *planner.UploadView
	CanAnalyze bool
	Warnings   []string
	Messages   []message
	Result     *result
}

func (h *Handler) page(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	h.render(c, sess, nil, nil)
}

func (h *Handler) pageUpload(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	h.limitBody(c)
	if msg, ok := h.storeForm(c, sess); !ok {
		h.render(c, sess, []message{msg}, nil)
		return
	}

	name, data, err := h.readUpload(c)
	if err != nil {
		h.render(c, sess, []message{h.uploadErrorMessage(err)}, nil)
		return
	}
	h.renderOutcome(c, sess, h.Planner.Upload(c.Request.Context(), sess, name, data))
}

func (h *Handler) pagePlan(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	h.limitBody(c)
	if msg, ok := h.storeForm(c, sess); !ok {
		h.render(c, sess, []message{msg}, nil)
		return
	}
	h.renderOutcome(c, sess, h.Planner.GeneratePlan(c.Request.Context(), sess))
}

func (h *Handler) pageAnalyze(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	h.limitBody(c)
	if msg, ok := h.storeForm(c, sess); !ok {
		h.render(c, sess, []message{msg}, nil)
		return
	}
	h.renderOutcome(c, sess, h.Planner.AnalyzeMaterial(c.Request.Context(), sess))
}

// storeForm binds the posted fields and saves them before any action runs,
// so a failed action never loses what the user typed.
func (h *Handler) storeForm(c *gin.Context, sess *planner.Session) (message, bool) {
	var in planner.FormInput
	if err := c.ShouldBind(&in); err != nil {
		if isTooLarge(err) {
			return message{Level: planner.LevelError, Text: h.tooLargeMessage()}, false
		}
		return message{Level: planner.LevelError, Text: bindError(err)}, false
	}
	if err := h.Planner.UpdateForm(sess, in); err != nil {
		return message{Level: planner.LevelError, Text: bindError(err)}, false
	}
	return message{}, true
}

func (h *Handler) uploadErrorMessage(err error) message {
	switch err {
	case errNoFile:
		return message{Level: planner.LevelWarning, Text: "Choose a PDF file to upload."}
	case errFileTooLarge:
		return message{Level: planner.LevelError, Text: h.tooLargeMessage()}
	default:
		return message{Level: planner.LevelError, Text: "Failed to read the uploaded file: " + err.Error()}
	}
}

func (h *Handler) renderOutcome(c *gin.Context, sess *planner.Session, out planner.Outcome) {
	c.Set(middleware.OutcomeKey, string(out.Code))

	var msgs []message
	if out.Message != "" {
		msgs = append(msgs, message{Level: out.Level, Text: out.Message})
	}
	var res *result
	if out.OK() && out.Text != "" {
		res = &result{Title: out.Title, HTML: h.markdown(out.Text)}
	}
	h.render(c, sess, msgs, res)
}

func (h *Handler) render(c *gin.Context, sess *planner.Session, msgs []message, res *result) {
	view := h.Planner.View(sess)
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, pageTemplate, pageData{
		Form:       view.Form,
		Durations:  prompt.Durations(),
		Paces:      prompt.Paces(),
		Styles:     prompt.Styles(),
		Upload:     view.Upload,
		CanAnalyze: view.Upload != nil,
		Warnings:   h.opts.Warnings,
		Messages:   msgs,
		Result:     res,
	})
}

// markdown renders generated text. Raw HTML in the source is escaped by
// goldmark's default renderer.
func (h *Handler) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		telemetry.Warn("web.markdown.failed", map[string]any{"err": err})
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(buf.String())
}
