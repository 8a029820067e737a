package models

import "encoding/json"

// Subject is one entry of the progress tracker. IDs are stable strings so a
// restored master file keeps referring to the same routine slots.
type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"` // 0 to 100
}

type Profile struct {
	Name       string `json:"name"`
	College    string `json:"college"`
	Session    string `json:"session"`
	Bio        string `json:"bio"`
	TargetGoal string `json:"targetGoal"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// QuestionPair is immutable once created; every question collection in the
// system stores this shape.
type QuestionPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SubjectBank holds the two question collections of a subject: short-answer
// (mcqs) and extended-response (cqs).
type SubjectBank struct {
	MCQs []QuestionPair `json:"mcqs"`
	CQs  []QuestionPair `json:"cqs"`
}

// ExamQuestionBank is a generated per-subject snapshot for one practice
// session. A later generation replaces the prior snapshot for that subject.
type ExamQuestionBank struct {
	SubjectID   string         `json:"subjectId"`
	SubjectName string         `json:"subjectName"`
	MCQs        []QuestionPair `json:"mcqs"`
	CQs         []QuestionPair `json:"cqs"`
	LastUpdated int64          `json:"lastUpdated"` // epoch ms
}

// MasterFile is the versioned envelope around the full exportable state.
// Payload fields stay raw so that restore can distinguish "absent" from
// "present but empty" and leave untouched keys alone.
type MasterFile struct {
	AppName  string        `json:"appName"`
	Version  string        `json:"version"`
	LastSync string        `json:"lastSync"`
	Payload  MasterPayload `json:"payload"`
}

type MasterPayload struct {
	Profile   json.RawMessage `json:"profile"`
	Routine   json.RawMessage `json:"routine"`
	Questions json.RawMessage `json:"questions"`
	Subjects  json.RawMessage `json:"subjects"`
}

type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// StudyTipResponse is the shape of a web-grounded AI answer (quick ask and
// board news). DetectedDate carries an exam date spotted in the answer text.
type StudyTipResponse struct {
	Text         string   `json:"text"`
	Sources      []Source `json:"sources"`
	DetectedDate string   `json:"detectedDate,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type GradeFeedback struct {
	QuestionIndex int     `json:"questionIndex"`
	Score         float64 `json:"score"`
	Comment       string  `json:"comment"`
}

// GradingResult is the structured output of an AI-graded submission.
type GradingResult struct {
	TotalScore float64         `json:"totalScore"`
	MaxScore   float64         `json:"maxScore"`
	Remarks    string          `json:"remarks"`
	Feedback   []GradeFeedback `json:"feedback"`
}

// WSMessage is pushed to dashboard websocket clients via Redis pub/sub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
