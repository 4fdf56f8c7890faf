package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"study-planner/internal/planner"
	"study-planner/internal/shared/server/middleware"
	"study-planner/internal/shared/server/respond"
	"study-planner/internal/shared/util"
)

const (
	defaultMaxUploadBytes = 10 << 20 // 10MB
	multipartOverhead     = 64 << 10
)

var (
	errNoFile       = errors.New("file is required")
	errFileTooLarge = errors.New("file too large")
)

// Options configures the handlers.
type Options struct {
	MaxUploadBytes   int64
	APIKeyConfigured bool

	// Warnings are shown as a banner on every page, e.g. a missing API key.
	Warnings []string
}

// Handler serves the study planner page and its JSON API.
type Handler struct {
	Planner *planner.Planner
	opts    Options
	md      goldmark.Markdown
}

// NewHandler constructs a Handler.
func NewHandler(p *planner.Planner, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		Planner: p,
		opts:    opts,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RegisterBindings installs the form selector validations on gin's binding
// validator. It must run before any route binds a planner.FormInput.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return planner.RegisterValidations(v)
}

// RegisterPageRoutes attaches the HTML routes. Each button posts the whole
// form to its own route.
func (h *Handler) RegisterPageRoutes(r gin.IRoutes) {
	r.GET("/", h.page)
	r.POST("/upload", h.pageUpload)
	r.POST("/plan", h.pagePlan)
	r.POST("/analyze", h.pageAnalyze)
}

// RegisterAPIRoutes attaches the JSON session routes.
func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.GET("/session", h.apiSession)
	rg.PUT("/session/form", h.apiUpdateForm)
	rg.POST("/session/upload", h.apiUpload)
	rg.POST("/session/plan", h.apiPlan)
	rg.POST("/session/analyze", h.apiAnalyze)
}

// readUpload pulls the "file" part out of a multipart request, capped at the
// configured size.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			return "", nil, errFileTooLarge
		}
		return "", nil, errNoFile
	}
	if fileHeader.Size > h.opts.MaxUploadBytes {
		return "", nil, errFileTooLarge
	}

	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		return "", nil, fmt.Errorf("invalid file name: %w", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, fmt.Errorf("unable to read file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("unable to read file: %w", err)
	}
	if int64(len(data)) > h.opts.MaxUploadBytes {
		return "", nil, errFileTooLarge
	}
	if len(data) == 0 {
		return "", nil, errNoFile
	}
	return name, data, nil
}

func (h *Handler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+multipartOverhead)
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("The file is larger than the %d MB upload limit.", h.opts.MaxUploadBytes>>20)
}

// bindError turns a binding failure into a short user-facing message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s %q", strings.ToLower(fe.Field()), fe.Value()))
		}
		return "Unknown " + strings.Join(fields, ", ") + "."
	}
	if errors.Is(err, planner.ErrInvalidForm) {
		return err.Error()
	}
	return "Invalid form input."
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func sessionOrAbort(c *gin.Context) *planner.Session {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "session unavailable", nil)
	}
	return sess
}
