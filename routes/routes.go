package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/controllers"
	"ctsr-api/middleware"
)

func SetupRoutes(router *gin.Engine, db *gorm.DB) {
	lookups := controllers.NewLookupController(db)
	vendors := controllers.NewVendorController(db)
	systems := controllers.NewSystemController(db)
	trials := controllers.NewTrialController(db)
	confirmations := controllers.NewConfirmationController(db)
	admin := controllers.NewAdminController(db)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Clinical Trial Systems Register API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Reference data (all authenticated users)
			protected.GET("/lookups", middleware.RequireRole(middleware.RoleViewer), lookups.GetLookups)

			// Dashboard
			protected.GET("/admin/dashboard", middleware.RequireRole(middleware.RoleViewer), admin.GetDashboardStats)

			// Vendor registry
			vendorGroup := protected.Group("/vendors")
			{
				vendorGroup.GET("", middleware.RequireRole(middleware.RoleViewer), vendors.ListVendors)
				vendorGroup.GET("/:id", middleware.RequireRole(middleware.RoleViewer), vendors.GetVendor)

				// Only admins manage the registry
				vendorGroup.POST("", middleware.RequireRole(middleware.RoleAdmin), vendors.CreateVendor)
				vendorGroup.PATCH("/:id", middleware.RequireRole(middleware.RoleAdmin), vendors.UpdateVendor)

				// Vendor-submitted system lists
				vendorGroup.GET("/:id/uploads", middleware.RequireRole(middleware.RoleViewer), vendors.ListUploads)
				vendorGroup.POST("/:id/uploads", middleware.RequireRole(middleware.RoleAdmin), vendors.UploadSystems)
			}

			// System catalog
			systemGroup := protected.Group("/systems")
			{
				systemGroup.GET("", middleware.RequireRole(middleware.RoleViewer), systems.ListSystems)
				systemGroup.GET("/:id", middleware.RequireRole(middleware.RoleViewer), systems.GetSystem)

				// Only admins change the catalog
				systemGroup.POST("", middleware.RequireRole(middleware.RoleAdmin), systems.CreateSystem)
				systemGroup.PATCH("/:id", middleware.RequireRole(middleware.RoleAdmin), systems.UpdateSystem)
			}

			// Trial registry and linkage
			trialGroup := protected.Group("/trials")
			{
				trialGroup.GET("", middleware.RequireRole(middleware.RoleViewer), trials.ListTrials)
				trialGroup.GET("/:id", middleware.RequireRole(middleware.RoleViewer), trials.GetTrial)

				trialGroup.POST("", middleware.RequireRole(middleware.RoleTrialLead), trials.CreateTrial)
				trialGroup.PATCH("/:id", middleware.RequireRole(middleware.RoleTrialLead), trials.UpdateTrial)
				trialGroup.POST("/:id/systems", middleware.RequireRole(middleware.RoleTrialLead), trials.LinkSystem)
				trialGroup.PATCH("/:id/systems/:instanceId", middleware.RequireRole(middleware.RoleTrialLead), trials.UpdateLink)
				trialGroup.DELETE("/:id/systems/:instanceId", middleware.RequireRole(middleware.RoleTrialLead), trials.UnlinkSystem)
			}

			// Confirmation workflow
			confirmationGroup := protected.Group("/confirmations")
			{
				confirmationGroup.GET("", middleware.RequireRole(middleware.RoleViewer), confirmations.ListConfirmations)
				confirmationGroup.GET("/:id", middleware.RequireRole(middleware.RoleViewer), confirmations.GetConfirmation)

				confirmationGroup.POST("", middleware.RequireRole(middleware.RoleTrialLead), confirmations.CreateConfirmation)
				confirmationGroup.PATCH("/:id", middleware.RequireRole(middleware.RoleTrialLead), confirmations.UpdateConfirmation)
				confirmationGroup.POST("/:id/submit", middleware.RequireRole(middleware.RoleTrialLead), confirmations.SubmitConfirmation)
				confirmationGroup.POST("/exports", middleware.RequireRole(middleware.RoleTrialLead), confirmations.GenerateExport)
			}
		}
	}
}
