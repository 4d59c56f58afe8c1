package answerquestion

type Input struct {
	Question  string `json:"question"`
	RequestID string `json:"requestId,omitempty"`
}

type Output struct {
	Answer  string   `json:"answer"`
	Intent  string   `json:"intent"`
	Params  []string `json:"params"`
	Matched bool     `json:"matched"`
	Outcome string   `json:"outcome"`
}
