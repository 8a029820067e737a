package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"hscplanner-backend/internal/models"
)

// Model split follows the dashboard's cost profile: the lite model for bulk
// structured generation and grading, the search model for grounded answers.
const (
	searchModelName = "gemini-3-flash-preview"
	liteModelName   = "gemini-flash-lite-latest"
)

type GeminiService struct {
	client      *genai.Client
	searchModel *genai.GenerativeModel
	rateChan    chan struct{} // Token bucket
}

func NewGeminiService(apiKey string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	searchModel := client.GenerativeModel(searchModelName)
	searchModel.SetTemperature(0.1)
	searchModel.Tools = []*genai.Tool{{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}}}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:      client,
		searchModel: searchModel,
		rateChan:    rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

var questionPairSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"question": {Type: genai.TypeString},
		"answer":   {Type: genai.TypeString},
	},
	Required: []string{"question", "answer"},
}

// GenerateQuestions asks the lite model for a board-standard batch of 10 MCQ
// and 5 CQ pairs for the subject, as structured JSON.
func (s *GeminiService) GenerateQuestions(ctx context.Context, subjectName string) (models.SubjectBank, error) {
	if err := s.acquireRate(ctx); err != nil {
		return models.SubjectBank{}, err
	}
	defer s.releaseRate()

	model := s.client.GenerativeModel(liteModelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"mcqs": {Type: genai.TypeArray, Items: questionPairSchema},
			"cqs":  {Type: genai.TypeArray, Items: questionPairSchema},
		},
		Required: []string{"mcqs", "cqs"},
	}

	prompt := fmt.Sprintf("Generate 10 board-standard MCQ and 5 CQ questions for HSC %s in Bengali.", subjectName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.SubjectBank{}, fmt.Errorf("%s", translateAIError(err))
	}

	var bank models.SubjectBank
	if err := json.Unmarshal([]byte(stripCodeFence(extractText(resp))), &bank); err != nil {
		return models.SubjectBank{}, fmt.Errorf("failed to parse generated questions: %w", err)
	}
	return bank, nil
}

// GradeSubmission sends the question/answer pairs to the lite model and
// expects a structured grading result back.
func (s *GeminiService) GradeSubmission(ctx context.Context, questions []models.QuestionPair, userAnswers []string) (models.GradingResult, error) {
	if err := s.acquireRate(ctx); err != nil {
		return models.GradingResult{}, err
	}
	defer s.releaseRate()

	model := s.client.GenerativeModel(liteModelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"totalScore": {Type: genai.TypeNumber},
			"maxScore":   {Type: genai.TypeNumber},
			"remarks":    {Type: genai.TypeString},
			"feedback": {Type: genai.TypeArray, Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"questionIndex": {Type: genai.TypeNumber},
					"score":         {Type: genai.TypeNumber},
					"comment":       {Type: genai.TypeString},
				},
			}},
		},
		Required: []string{"totalScore", "maxScore", "remarks", "feedback"},
	}

	submission, _ := json.Marshal(map[string]interface{}{
		"questions":   questions,
		"userAnswers": userAnswers,
	})

	resp, err := model.GenerateContent(ctx, genai.Text("Grade these HSC student answers: "+string(submission)))
	if err != nil {
		return models.GradingResult{}, fmt.Errorf("%s", translateAIError(err))
	}

	var result models.GradingResult
	if err := json.Unmarshal([]byte(stripCodeFence(extractText(resp))), &result); err != nil {
		return models.GradingResult{}, fmt.Errorf("failed to parse grading result: %w", err)
	}
	return result, nil
}

// QuickAnswer runs a web-grounded query for the subject. Failures come back
// inside the response (Error set, friendly Text) so the solver card can show
// them directly.
func (s *GeminiService) QuickAnswer(ctx context.Context, subjectName, query string) models.StudyTipResponse {
	if err := s.acquireRate(ctx); err != nil {
		return models.StudyTipResponse{Text: translateAIError(err), Sources: []models.Source{}, Error: err.Error()}
	}
	defer s.releaseRate()

	model := s.client.GenerativeModel(searchModelName)
	model.Tools = []*genai.Tool{{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}}}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text("You are an expert HSC teacher. Answer concisely in Bengali.")},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf("Subject: %s. Question: %s", subjectName, query)))
	if err != nil {
		return models.StudyTipResponse{Text: translateAIError(err), Sources: []models.Source{}, Error: err.Error()}
	}

	text := extractText(resp)
	if text == "" {
		text = "উত্তর পাওয়া যায়নি।"
	}
	return models.StudyTipResponse{Text: text, Sources: extractSources(resp)}
}

// BoardNews fetches the latest board exam news with sources and scans the
// answer for a published exam date.
func (s *GeminiService) BoardNews(ctx context.Context) models.StudyTipResponse {
	if err := s.acquireRate(ctx); err != nil {
		return models.StudyTipResponse{Text: "নিউজ লোড করা যায়নি। ১ মিনিট পর চেষ্টা করুন।", Sources: []models.Source{}, Error: err.Error()}
	}
	defer s.releaseRate()

	resp, err := s.searchModel.GenerateContent(ctx, genai.Text("Latest HSC Exam news Bangladesh boards 2025-26."))
	if err != nil {
		return models.StudyTipResponse{Text: "নিউজ লোড করা যায়নি। ১ মিনিট পর চেষ্টা করুন।", Sources: []models.Source{}, Error: translateAIError(err)}
	}

	text := extractText(resp)
	if text == "" {
		text = "নতুন কোনো নিউজ পাওয়া যায়নি।"
	}
	return models.StudyTipResponse{
		Text:         text,
		Sources:      extractSources(resp),
		DetectedDate: detectExamDate(text),
	}
}

var examDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

func detectExamDate(text string) string {
	return examDatePattern.FindString(text)
}

// translateAIError maps transport failures to the retry guidance the
// dashboard shows. Quota exhaustion points at the offline local mode.
func translateAIError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "limit"):
		return "গুগলের ফ্রি লিমিট (Quota) শেষ হয়েছে। দয়া করে ১ মিনিট অপেক্ষা করে আবার চেষ্টা করুন। এই সময় আপনি লোকাল মোডে পরীক্ষা দিতে পারবেন।"
	case strings.Contains(msg, "404"):
		return "এআই সার্ভার খুঁজে পাওয়া যাচ্ছে না।"
	case strings.Contains(msg, "500"):
		return "গুগল সার্ভারে সমস্যা হচ্ছে, একটু পর চেষ্টা করুন।"
	default:
		return "কানেকশনে সমস্যা হয়েছে। ইন্টারনেট চেক করে আবার চেষ্টা করুন।"
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func extractSources(resp *genai.GenerateContentResponse) []models.Source {
	sources := []models.Source{}
	for _, cand := range resp.Candidates {
		if cand.CitationMetadata == nil {
			continue
		}
		for _, cit := range cand.CitationMetadata.CitationSources {
			if cit.URI == nil || *cit.URI == "" {
				continue
			}
			sources = append(sources, models.Source{Title: "সূত্র", URI: *cit.URI})
		}
	}
	return sources
}

func stripCodeFence(raw string) string {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
