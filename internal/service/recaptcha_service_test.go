package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

func recaptchaServer(t *testing.T, valid bool, score float64, action string, captured *assessmentRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, "/v1/projects/test-project/assessments")
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body assessmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body.Event.Token)
		if captured != nil {
			*captured = body
		}

		var resp assessmentResponse
		resp.TokenProperties.Valid = valid
		resp.TokenProperties.Action = action
		resp.RiskAnalysis.Score = score
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func recaptchaFixture(t *testing.T, valid bool, score float64) *RecaptchaService {
	t.Helper()
	return recaptchaFixtureCapture(t, valid, score, "", nil)
}

func recaptchaFixtureCapture(t *testing.T, valid bool, score float64, action string, captured *assessmentRequest) *RecaptchaService {
	t.Helper()
	server := recaptchaServer(t, valid, score, action, captured)
	return NewRecaptchaService(server.Client(), zap.NewNop(), RecaptchaConfig{
		VerifyURL: server.URL,
		APIKey:    "test-key",
		ProjectID: "test-project",
		MinScore:  0.5,
	})
}

func TestRecaptchaServiceVerify(t *testing.T) {
	service := recaptchaFixture(t, true, 0.9)
	require.NoError(t, service.Verify(context.Background(), AssessmentInput{Token: "token"}))
}

func TestRecaptchaServiceVerifyInvalidToken(t *testing.T) {
	service := recaptchaFixture(t, false, 0.9)

	err := service.Verify(context.Background(), AssessmentInput{Token: "token"})
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestRecaptchaServiceVerifyLowScore(t *testing.T) {
	service := recaptchaFixture(t, true, 0.2)

	err := service.Verify(context.Background(), AssessmentInput{Token: "token"})
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestRecaptchaServiceVerifyEmptyToken(t *testing.T) {
	service := recaptchaFixture(t, true, 0.9)

	err := service.Verify(context.Background(), AssessmentInput{})
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestRecaptchaServiceDisabledAcceptsEverything(t *testing.T) {
	service := NewRecaptchaService(nil, zap.NewNop(), RecaptchaConfig{})

	assert.False(t, service.Enabled())
	require.NoError(t, service.Verify(context.Background(), AssessmentInput{}))
	require.NoError(t, service.Verify(context.Background(), AssessmentInput{Token: "anything"}))
}

func TestRecaptchaServiceForwardsActionAndSiteKey(t *testing.T) {
	var captured assessmentRequest
	service := recaptchaFixtureCapture(t, true, 0.9, "contact", &captured)

	err := service.Verify(context.Background(), AssessmentInput{
		Token:   "token",
		Action:  "contact",
		SiteKey: "site-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "token", captured.Event.Token)
	assert.Equal(t, "site-key", captured.Event.SiteKey)
	assert.Equal(t, "contact", captured.Event.ExpectedAction)
}

func TestRecaptchaServiceRejectsActionMismatch(t *testing.T) {
	service := recaptchaFixtureCapture(t, true, 0.9, "login", nil)

	err := service.Verify(context.Background(), AssessmentInput{Token: "token", Action: "contact"})
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestRecaptchaServiceAssessReturnsScore(t *testing.T) {
	service := recaptchaFixture(t, true, 0.8)

	passed, score, err := service.Assess(context.Background(), AssessmentInput{Token: "token"})
	require.NoError(t, err)
	assert.True(t, passed)
	assert.InDelta(t, 0.8, score, 0.001)
}

func TestRecaptchaServiceAssessBelowThreshold(t *testing.T) {
	service := recaptchaFixture(t, true, 0.3)

	passed, score, err := service.Assess(context.Background(), AssessmentInput{Token: "token"})
	require.NoError(t, err)
	assert.False(t, passed)
	assert.InDelta(t, 0.3, score, 0.001)
}
