package validator

// GenerateTestRequest is the body of POST /api/generate-test.
type GenerateTestRequest struct {
	Title       string `json:"title" validate:"max=200"`
	QuestionIDs []uint `json:"question_ids" validate:"required,min=1"`
}

// RandomTestRequest is the body of POST /api/generate-random-test.
type RandomTestRequest struct {
	Title      string `json:"title" validate:"max=200"`
	Subject    string `json:"subject"`
	Difficulty *int   `json:"difficulty" validate:"omitempty,min=1,max=5"`
	Count      int    `json:"count" validate:"min=1,max=100"`
}

// LogRequest is the body of POST /bridge/log.
type LogRequest struct {
	Message string `json:"message" validate:"required"`
	Level   string `json:"level" validate:"omitempty,oneof=debug info warn error"`
}
