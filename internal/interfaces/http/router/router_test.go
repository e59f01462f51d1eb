package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/application/ratelimit"
	"storyforge-ai-api/internal/application/story"
	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/interfaces/http/handler"
	"storyforge-ai-api/pkg/utils"
)

type stubGeneration struct{}

func (stubGeneration) Generate(context.Context, story.GenerateInput) (*story.GenerateOutput, error) {
	return &story.GenerateOutput{}, nil
}

func (stubGeneration) GenerateStoryboard(context.Context, story.StoryboardInput) (*story.StoryboardFrame, error) {
	return &story.StoryboardFrame{}, nil
}

func (stubGeneration) Chat(_ context.Context, in story.ChatInput) (*story.ChatOutput, error) {
	return &story.ChatOutput{Reply: "echo: " + in.Message}, nil
}

type stubPlans struct{ handler.SubscriptionService }

func (stubPlans) Plans() []entity.Plan { return []entity.Plan{{ID: entity.TierPro}} }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "storyforge-test"
	cfg.App.Env = "test"
	cfg.Security.JWT.Secret = "secret"
	cfg.Security.JWT.Issuer = "storyforge"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handlers := RouterHandlers{
		Health:       handler.NewHealthHandler("test", nil),
		Generation:   handler.NewGenerationHandler(stubGeneration{}),
		Subscription: handler.NewSubscriptionHandler(stubPlans{}),
	}
	r := NewWithDeps(testConfig(), handlers, ratelimit.NewMemoryLimiter(20, time.Minute))

	token, err := utils.NewJWTManager("secret", "storyforge").IssueAccessToken("u1", "", time.Hour)
	require.NoError(t, err)
	return r.Engine(), token
}

func request(e *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRouterSystemEndpointsArePublic(t *testing.T) {
	e, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, request(e, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, request(e, http.MethodGet, "/live", "", "").Code)
	assert.Equal(t, http.StatusOK, request(e, http.MethodGet, "/metrics", "", "").Code)
	assert.Equal(t, http.StatusOK, request(e, http.MethodGet, "/v1/subscription/plans", "", "").Code)
}

func TestRouterRequiresAuthBeforeHandlers(t *testing.T) {
	e, _ := newTestRouter(t)

	w := request(e, http.MethodPost, "/v1/chat", "", `{"message":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterChatRateLimit(t *testing.T) {
	e, token := newTestRouter(t)

	for i := 0; i < 20; i++ {
		w := request(e, http.MethodPost, "/v1/chat", token, `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
	w := request(e, http.MethodPost, "/v1/chat", token, `{"message":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = request(e, http.MethodPost, "/v1/projects/p1/generate/logline", token, "")
	assert.Equal(t, http.StatusOK, w.Code, "generation endpoints are not rate limited")
}
