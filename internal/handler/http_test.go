package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"portfolio-server/internal/models"
	"portfolio-server/internal/ratelimit"
	"portfolio-server/internal/service"
)

// fakeAssistant answers every AI call with a canned result and records how
// often analysis ran.
type fakeAssistant struct {
	analyzed []uuid.UUID
}

func (f *fakeAssistant) Chat(context.Context, string, []service.ChatMessage) (*service.ChatReply, error) {
	return &service.ChatReply{}, nil
}

func (f *fakeAssistant) AssessFit(context.Context, string) (*service.FitAssessment, error) {
	return &service.FitAssessment{}, nil
}

func (f *fakeAssistant) AnalyzeBlogPost(_ context.Context, id uuid.UUID) (*service.BlogAnalysis, error) {
	f.analyzed = append(f.analyzed, id)
	return &service.BlogAnalysis{}, nil
}

type fakeWorkbench struct{}

func (fakeWorkbench) RefinePrompt(context.Context, models.AgentType, string, string) (*service.RefineResult, error) {
	return &service.RefineResult{}, nil
}

func (fakeWorkbench) TestPrompt(context.Context, string, []service.PromptTestCase) (*service.TestReport, error) {
	return &service.TestReport{}, nil
}

func (fakeWorkbench) ProposeResumeUpdate(context.Context, string) (*service.ResumeUpdateProposal, error) {
	return &service.ResumeUpdateProposal{}, nil
}

type fakePostRepo struct{}

func (fakePostRepo) Create(context.Context, *models.BlogPost) error { return nil }
func (fakePostRepo) GetByID(_ context.Context, id uuid.UUID) (*models.BlogPost, error) {
	return &models.BlogPost{ID: id}, nil
}
func (fakePostRepo) List(context.Context) ([]*models.BlogPost, error) { return nil, nil }
func (fakePostRepo) Update(context.Context, *models.BlogPost) error   { return nil }
func (fakePostRepo) UpdateAnalysis(context.Context, uuid.UUID, []string, string, string) error {
	return nil
}

// newFullRouter runs the real route registration against fakes and hands
// back a valid session token.
func newFullRouter(t *testing.T, prompts *fakePromptService, assistant *fakeAssistant) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	auth := service.NewAuthService(string(hash), "0123456789abcdef0123456789abcdef", time.Hour, zap.NewNop())

	admin := NewAdminHandler(auth, prompts, time.Hour, false, zap.NewNop())
	workbench := NewWorkbenchHandler(fakeWorkbench{}, zap.NewNop())
	public := NewPublicHandler(assistant, fakePostRepo{}, zap.NewNop())

	router := gin.New()
	RegisterRoutes(router, admin, workbench, public, auth, ratelimit.NewMemoryStore(), zap.NewNop())

	token, err := auth.Login(context.Background(), testAdminPassword)
	require.NoError(t, err)
	return router, token
}

func getJSON(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeRequiresAdminSession(t *testing.T) {
	assistant := &fakeAssistant{}
	router, token := newFullRouter(t, &fakePromptService{}, assistant)
	postID := uuid.NewString()

	// Analysis writes metadata back to the post, so there is no
	// visitor-facing route for it.
	w := postJSON(router, "/api/blog/posts/"+postID+"/analyze", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The admin route refuses anonymous callers before any work happens.
	w = postJSON(router, "/api/admin/blog/posts/"+postID+"/analyze", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, assistant.analyzed)

	w = postJSON(router, "/api/admin/blog/posts/"+postID+"/analyze", nil,
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, assistant.analyzed, 1)
}

func TestAdminLimiterCountsPerRoute(t *testing.T) {
	known := uuid.New()
	prompts := &fakePromptService{knownID: known}
	router, token := newFullRouter(t, prompts, &fakeAssistant{})
	headers := map[string]string{"Authorization": "Bearer " + token}
	deployBody := gin.H{"agentType": "chat", "versionId": known.String()}

	// Version-list reads never consume a mutation budget.
	for i := 0; i < ratelimit.AdminLimit; i++ {
		w := getJSON(router, "/api/admin/prompts?agentType=chat", headers)
		require.Equal(t, http.StatusOK, w.Code)
	}

	for i := 0; i < ratelimit.AdminLimit; i++ {
		w := postJSON(router, "/api/admin/deploy-prompt", deployBody, headers)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := postJSON(router, "/api/admin/deploy-prompt", deployBody, headers)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// A saturated deploy window leaves sibling endpoints and reads untouched.
	w = postJSON(router, "/api/admin/refine-prompt",
		gin.H{"agentType": "chat", "refinementRequest": "make it shorter"}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	w = getJSON(router, "/api/admin/prompts?agentType=chat", headers)
	assert.Equal(t, http.StatusOK, w.Code)
}
