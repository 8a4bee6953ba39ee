package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type StartInterviewRequest struct {
	Subjects       []string `json:"subjects" validate:"required,min=1,dive,min=1"`
	TotalQuestions int32    `json:"totalQuestions" validate:"omitempty,min=1,max=20"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

type CaptureStartRequest struct {
	StreamID string `json:"streamId"`
}

type CaptureChunkRequest struct {
	Chunk string `json:"chunk" validate:"required,base64"`
}

type TranscribeRequest struct {
	Audio string `json:"audio" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// Validator plugs go-playground/validator into echo's binding pipeline.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
