package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"study-planner/internal/prompt"
)

// ErrInvalidForm is returned when a selector carries an unknown value.
var ErrInvalidForm = errors.New("invalid form input")

// FormInput is a partial form update. Nil topic and empty selectors keep the
// stored value. The binding tags are shared with gin's request binding.
type FormInput struct {
	Topic    *string `form:"topic" json:"topic"`
	Duration string  `form:"duration" json:"duration" binding:"omitempty,duration"`
	Pace     string  `form:"pace" json:"pace" binding:"omitempty,pace"`
	Style    string  `form:"style" json:"style" binding:"omitempty,style"`
}

// RegisterValidations installs the selector validators on v.
func RegisterValidations(v *validator.Validate) error {
	rules := map[string]func(string) error{
		"duration": func(s string) error { _, err := prompt.ParseDuration(s); return err },
		"pace":     func(s string) error { _, err := prompt.ParsePace(s); return err },
		"style":    func(s string) error { _, err := prompt.ParseStyle(s); return err },
	}
	for tag, parse := range rules {
		parse := parse
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return parse(fl.Field().String()) == nil
		}); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

func (p *Planner) validateForm(in FormInput) error {
	err := p.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s=%q", strings.ToLower(fe.Field()), fe.Value()))
	}
	return fmt.Errorf("%w: unknown %s", ErrInvalidForm, strings.Join(fields, ", "))
}

func applyForm(cur FormState, in FormInput) FormState {
	if in.Topic != nil {
		cur.Topic = *in.Topic
	}
	if d, err := prompt.ParseDuration(in.Duration); err == nil {
		cur.Duration = d
	}
	if p, err := prompt.ParsePace(in.Pace); err == nil {
		cur.Pace = p
	}
	if s, err := prompt.ParseStyle(in.Style); err == nil {
		cur.Style = s
	}
	return cur
}
