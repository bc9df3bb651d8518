package api

import (
	"net/http"

	"physiq/physiq-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	scanService service.ScanService,
	planService service.PlanService,
	assetService service.AssetService,
) {

	authHandler := NewAuthHandler(authService)
	scanHandler := NewScanHandler(scanService)
	planHandler := NewPlanHandler(planService)
	assetHandler := NewAssetHandler(assetService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		// --- Scan Routes ---
		scanGroup := protected.Group("/scans")
		{
			// POST /api/v1/scans/upload-url
			scanGroup.POST("/upload-url", scanHandler.RequestUploadURL)
			// POST /api/v1/scans
			scanGroup.POST("", scanHandler.SubmitScan)
			// GET /api/v1/scans/latest
			scanGroup.GET("/latest", scanHandler.GetLatestScan)
			// GET /api/v1/scans
			scanGroup.GET("", scanHandler.GetScanHistory)
		}

		// --- Plan Routes ---
		planGroup := protected.Group("/plan")
		{
			// GET /api/v1/plan
			planGroup.GET("", planHandler.GetCurrentPlan)
			// POST /api/v1/plan/days/{index}/complete
			planGroup.POST("/days/:index/complete", planHandler.CompleteDay)
			// POST /api/v1/plan/days/{index}/select-today
			planGroup.POST("/days/:index/select-today", planHandler.SelectToday)
		}

		// --- Asset Routes ---
		// GET /api/v1/assets/exercise?name=...
		protected.GET("/assets/exercise", assetHandler.GetExerciseAsset)
	}
}
