package planner

// Level is how an outcome should be presented.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Code identifies what happened to an action.
type Code string

const (
	CodeOK               Code = "ok"
	CodeValidation       Code = "validation_error"
	CodeNoUpload         Code = "no_upload"
	CodeEmptyResult      Code = "empty_result"
	CodeGenerationFailed Code = "generation_failed"
	CodeExtractionFailed Code = "extraction_failed"
	CodeBusy             Code = "busy"
)

// Outcome is the result of one button press. Only CodeOK carries generated text.
type Outcome struct {
	Action  string `json:"action"`
	Code    Code   `json:"code"`
	Level   Level  `json:"level"`
	Message string `json:"message,omitempty"`
	Title   string `json:"title,omitempty"`
	Text    string `json:"text,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool { return o.Code == CodeOK }

func warning(action string, code Code, msg string) Outcome {
	return Outcome{Action: action, Code: code, Level: LevelWarning, Message: msg}
}

func busy(action, msg string) Outcome {
	return warning(action, CodeBusy, msg)
}

func failure(action, prefix string, err error) Outcome {
	return Outcome{
		Action:  action,
		Code:    CodeGenerationFailed,
		Level:   LevelError,
		Message: prefix + ": " + err.Error(),
	}
}
