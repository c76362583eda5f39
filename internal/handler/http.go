package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-server/internal/ratelimit"
	"portfolio-server/internal/service"
)

// scopedIPKey namespaces limiter keys per policy group so the public and
// login windows do not share counters in one store.
func scopedIPKey(scope string) ratelimit.KeyFunc {
	return func(c *gin.Context) string {
		return scope + ":" + c.ClientIP()
	}
}

// perRouteIPKey keys the strict admin window per matched route per client.
// Each mutating endpoint gets its own counter, so exhausting the deploy
// budget never blocks refine or test runs.
func perRouteIPKey(c *gin.Context) string {
	return "admin:" + c.FullPath() + ":" + c.ClientIP()
}

// RegisterRoutes wires all HTTP endpoints onto the router.
func RegisterRoutes(
	router *gin.Engine,
	admin *AdminHandler,
	workbench *WorkbenchHandler,
	public *PublicHandler,
	auth service.AuthService,
	limiterStore ratelimit.Store,
	logger *zap.Logger,
) {
	publicLimiter := ratelimit.NewLimiter(limiterStore, ratelimit.PublicLimit, ratelimit.PublicWindow)
	adminLimiter := ratelimit.NewLimiter(limiterStore, ratelimit.AdminLimit, ratelimit.AdminWindow)
	loginLimiter := ratelimit.NewLimiter(limiterStore, ratelimit.LoginLimit, ratelimit.LoginWindow)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Visitor-facing AI endpoints, throttled per IP.
	ai := api.Group("")
	ai.Use(ratelimit.Middleware(publicLimiter, scopedIPKey("public"), logger))
	{
		ai.POST("/chat", public.Chat)
		ai.POST("/fit-assessment", public.AssessFit)
	}

	// Blog reads are cheap and unthrottled.
	api.GET("/blog/posts", public.ListPosts)
	api.GET("/blog/posts/:id", public.GetPost)

	// Login gets its own long window to slow credential guessing.
	login := api.Group("/admin")
	login.Use(ratelimit.Middleware(loginLimiter, scopedIPKey("login"), logger))
	{
		login.POST("/login", admin.Login)
	}

	// Everything below requires a valid admin session. Reads and logout are
	// unthrottled; the strict window applies only to the mutating endpoints,
	// counted per route so they never compete for one budget.
	authed := api.Group("/admin")
	authed.Use(SessionMiddleware(auth, logger))
	strict := ratelimit.Middleware(adminLimiter, perRouteIPKey, logger)
	{
		authed.POST("/logout", admin.Logout)

		authed.POST("/prompts", admin.SavePrompt)
		authed.GET("/prompts", admin.ListPrompts)
		authed.GET("/prompts/active", admin.GetActivePrompt)
		authed.GET("/prompts/:id", admin.GetPrompt)
		authed.POST("/deploy-prompt", strict, admin.DeployPrompt)

		authed.POST("/refine-prompt", strict, workbench.RefinePrompt)
		authed.POST("/test-prompt", strict, workbench.TestPrompt)
		authed.POST("/update-resume", strict, workbench.UpdateResume)

		authed.POST("/blog/posts", public.CreatePost)
		authed.PUT("/blog/posts/:id", public.UpdatePost)
		// Analysis writes tags and the content fingerprint back to the post,
		// so re-running it stays an editor action.
		authed.POST("/blog/posts/:id/analyze", strict, public.AnalyzePost)
	}
}
