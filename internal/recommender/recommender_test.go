package recommender_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/recommender"
	"fjacquet/statement-insights/internal/retry"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	answers []string
	errs    []error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	return s.answers[i], nil
}

const validAnswer = "```json\n" + `{
  "recommendations": {
    "easy": [{"id": "e1", "title": "Cancel unused streaming", "description": "d",
      "impact": {"monthly": 15.5, "yearly": 186}, "steps": ["review"], "links": [{"title": "t", "url": "https://example.com"}]}],
    "moderate": [],
    "significant": []
  },
  "wealthForecasts": {"withRecommendations": {"easy": [{"years": 5, "amount": 930}]}}
}` + "\n```"

func sampleTransactions() []models.Transaction {
	return []models.Transaction{{
		Date:         civil.Date{Year: 2024, Month: 1, Day: 5},
		Amount:       decimal.RequireFromString("-42.50"),
		Currency:     "USD",
		Counterparty: "Uber ride",
		Category:     models.CategoryTransport,
	}}
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 2, Backoff: time.Millisecond}
}

func TestRecommend(t *testing.T) {
	gen := &stubGenerator{answers: []string{validAnswer}}
	a := recommender.NewAdvisor(gen, fastPolicy(), nil)

	recs, err := a.Recommend(context.Background(), sampleTransactions())

	require.NoError(t, err)
	require.Len(t, recs.Recommendations.Easy, 1)
	assert.Equal(t, "Cancel unused streaming", recs.Recommendations.Easy[0].Title)
	assert.Equal(t, 15.5, recs.Recommendations.Easy[0].Impact.Monthly)
	require.Len(t, recs.WealthForecasts.WithRecommendations.Easy, 1)
	assert.Equal(t, "930", recs.WealthForecasts.WithRecommendations.Easy[0].Amount.String())

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "date,amount,currency,counterparty,category")
	assert.Contains(t, gen.prompts[0], "2024-01-05,-42.50,USD,Uber ride,Transport")
}

func TestRecommend_RetriesTransientErrors(t *testing.T) {
	gen := &stubGenerator{answers: []string{"", validAnswer}, errs: []error{errors.New("503")}}
	a := recommender.NewAdvisor(gen, fastPolicy(), nil)

	_, err := a.Recommend(context.Background(), sampleTransactions())

	require.NoError(t, err)
	assert.Len(t, gen.prompts, 2)
}

func TestRecommend_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
		code parsererror.Code
	}{
		{"upstream keeps failing", &stubGenerator{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}, parsererror.CodeRecommendationFailure},
		{"not json", &stubGenerator{answers: []string{"Sure! Here are some tips"}}, parsererror.CodeRecommendationFailure},
		{"no recommendations", &stubGenerator{answers: []string{`{"recommendations":{}}`}}, parsererror.CodeRecommendationFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recommender.NewAdvisor(tt.gen, fastPolicy(), nil).Recommend(context.Background(), sampleTransactions())
			assert.Equal(t, tt.code, parsererror.CodeOf(err))
		})
	}
}

func TestRecommend_EmptyInput(t *testing.T) {
	_, err := recommender.NewAdvisor(&stubGenerator{}, fastPolicy(), nil).Recommend(context.Background(), nil)

	assert.Equal(t, parsererror.CodePreconditionFailed, parsererror.CodeOf(err))
}

func TestNewGemini_MissingKey(t *testing.T) {
	_, err := recommender.NewGemini(context.Background(), recommender.Config{Model: "gemini-1.5-flash"}, nil)

	assert.Equal(t, parsererror.CodeConfiguration, parsererror.CodeOf(err))
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := recommender.BuildPrompt(sampleTransactions())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "You are a financial advisor"))
}
