package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/webandapp/institute-api/pkg/errors"
)

// RecaptchaConfig configures token verification.
type RecaptchaConfig struct {
	VerifyURL string
	APIKey    string
	ProjectID string
	MinScore  float64
}

// RecaptchaService verifies tokens against the risk-assessment API before
// public form submissions are accepted.
type RecaptchaService struct {
	client *http.Client
	logger *zap.Logger
	config RecaptchaConfig
}

// NewRecaptchaService constructs the verification service.
func NewRecaptchaService(client *http.Client, logger *zap.Logger, config RecaptchaConfig) *RecaptchaService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MinScore <= 0 {
		config.MinScore = 0.5
	}
	return &RecaptchaService{client: client, logger: logger, config: config}
}

// Enabled reports whether verification is configured. When disabled, Verify
// accepts every token.
func (s *RecaptchaService) Enabled() bool {
	return s != nil && s.config.VerifyURL != "" && s.config.APIKey != ""
}

// AssessmentInput is the token/action/siteKey triple submitted by the
// client alongside a protected form.
type AssessmentInput struct {
	Token   string
	Action  string
	SiteKey string
}

type assessmentRequest struct {
	Event struct {
		Token          string `json:"token"`
		SiteKey        string `json:"siteKey,omitempty"`
		ExpectedAction string `json:"expectedAction,omitempty"`
	} `json:"event"`
}

type assessmentResponse struct {
	TokenProperties struct {
		Valid         bool   `json:"valid"`
		InvalidReason string `json:"invalidReason"`
		Action        string `json:"action"`
	} `json:"tokenProperties"`
	RiskAnalysis struct {
		Score float64 `json:"score"`
	} `json:"riskAnalysis"`
}

// Verify checks the submission and rejects scores below the configured
// minimum.
func (s *RecaptchaService) Verify(ctx context.Context, input AssessmentInput) error {
	passed, score, err := s.Assess(ctx, input)
	if err != nil {
		return err
	}
	if !passed {
		s.logger.Info("captcha score below threshold", zap.Float64("score", score))
		return appErrors.Clone(appErrors.ErrForbidden, "captcha score too low")
	}
	return nil
}

// Assess verifies the submission and returns whether it cleared the minimum
// score along with the reported risk score. When verification is not
// configured every submission passes with a full score.
func (s *RecaptchaService) Assess(ctx context.Context, input AssessmentInput) (bool, float64, error) {
	if !s.Enabled() {
		return true, 1, nil
	}
	if input.Token == "" {
		return false, 0, appErrors.Clone(appErrors.ErrValidation, "captcha token is required")
	}

	var body assessmentRequest
	body.Event.Token = input.Token
	body.Event.SiteKey = input.SiteKey
	body.Event.ExpectedAction = input.Action
	payload, err := json.Marshal(body)
	if err != nil {
		return false, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode assessment")
	}

	url := fmt.Sprintf("%s/v1/projects/%s/assessments?key=%s", s.config.VerifyURL, s.config.ProjectID, s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build assessment request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, 0, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "captcha verification unavailable")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, 0, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("captcha verification returned status %d", resp.StatusCode))
	}

	var assessment assessmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return false, 0, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode assessment")
	}

	if !assessment.TokenProperties.Valid {
		s.logger.Info("captcha token rejected", zap.String("reason", assessment.TokenProperties.InvalidReason))
		return false, 0, appErrors.Clone(appErrors.ErrForbidden, "captcha token is invalid")
	}
	if input.Action != "" && assessment.TokenProperties.Action != "" && assessment.TokenProperties.Action != input.Action {
		s.logger.Info("captcha action mismatch",
			zap.String("expected", input.Action), zap.String("actual", assessment.TokenProperties.Action))
		return false, 0, appErrors.Clone(appErrors.ErrForbidden, "captcha action mismatch")
	}
	score := assessment.RiskAnalysis.Score
	return score >= s.config.MinScore, score, nil
}
