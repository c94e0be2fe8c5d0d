package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/config"
	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/middleware"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Users           core.UserService
	Weights         core.WeightService
	Workouts        core.WorkoutService
	Routines        core.RoutineService
	Nutrition       core.NutritionService
	Progress        core.ProgressService
	Trainers        core.TrainerService
	AssignedRoutine core.AssignedRoutineService
	Challenges      core.ChallengeService
	Notifications   core.NotificationService
	Billing         core.BillingService
	Catalog         *catalog.Catalog
}

// SetupRoutes configures all application routes. Global middleware (logging,
// recovery, CORS) is expected to be on the router already.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	svc Services,
) {
	if verifier == nil {
		logger.Fatal("Firebase Auth client is not initialized; cannot secure routes")
	}
	authMW := middleware.NewAuthMiddleware(verifier, svc.Users, logger)
	premium := middleware.RequirePremium()

	userHandler := NewUserHandler(svc.Users, svc.Weights, svc.Catalog)
	workoutHandler := NewWorkoutHandler(svc.Workouts)
	planHandler := NewPlanHandler(svc.Routines, svc.Nutrition, svc.Progress)
	trainerHandler := NewTrainerHandler(svc.Trainers, svc.AssignedRoutine, svc.Challenges)
	notificationHandler := NewNotificationHandler(svc.Notifications)
	billingHandler := NewBillingHandler(svc.Billing)

	apiV1 := router.Group("/api/v1")
	{
		// Public: payment providers authenticate webhooks themselves.
		webhooks := apiV1.Group("/billing/webhooks")
		{
			webhooks.POST("/stripe", billingHandler.HandleStripeWebhook)
			webhooks.POST("/mercadopago", billingHandler.HandleMercadoPagoWebhook)
		}

		authed := apiV1.Group("", authMW.VerifyToken())

		users := authed.Group("/users/me")
		{
			users.GET("", userHandler.GetCurrentUserProfile)
			users.PATCH("", userHandler.UpdateProfile)
			users.POST("/onboarding", userHandler.CompleteOnboarding)
			users.GET("/medical-notes", userHandler.GetMedicalNotes)
		}

		exercises := authed.Group("/exercises")
		{
			exercises.GET("", userHandler.ListExercises)
			exercises.GET("/:exerciseId/suggested-weight", userHandler.SuggestWeight)
		}

		workouts := authed.Group("/workouts")
		{
			workouts.POST("", workoutHandler.StartWorkout)
			workouts.GET("", workoutHandler.ListWorkouts)
			workouts.GET("/:workoutId", workoutHandler.GetWorkout)
			workouts.POST("/:workoutId/sets", workoutHandler.LogSet)
			workouts.POST("/:workoutId/finish", workoutHandler.FinishWorkout)
			workouts.POST("/:workoutId/abandon", workoutHandler.AbandonWorkout)
		}
		authed.GET("/personal-records", workoutHandler.ListPersonalRecords)

		routines := authed.Group("/routines")
		{
			routines.GET("", planHandler.ListRoutines)
			routines.GET("/active", planHandler.GetActiveRoutine)
			routines.POST("/generate", planHandler.GenerateRoutine)
			routines.POST("/generate/ai", premium, planHandler.GenerateRoutineAI)
			routines.GET("/:routineId/progress", planHandler.GetProgress)
			routines.POST("/:routineId/progress/backfill", planHandler.BackfillProgress)
		}

		nutrition := authed.Group("/nutrition")
		{
			nutrition.GET("/latest", planHandler.GetLatestNutrition)
			nutrition.POST("/generate", planHandler.GenerateNutrition)
			nutrition.POST("/generate/ai", premium, planHandler.GenerateNutritionAI)
		}

		authed.POST("/trainers", trainerHandler.RegisterTrainer)
		trainer := authed.Group("/trainers/me")
		{
			trainer.GET("", trainerHandler.GetMyTrainerProfile)
			trainer.GET("/dashboard", trainerHandler.Dashboard)
			trainer.POST("/code", trainerHandler.RegenerateCode)
			trainer.POST("/assigned-routines", trainerHandler.AssignRoutine)
			trainer.GET("/assigned-routines", trainerHandler.ListAssignedByMe)
			trainer.DELETE("/assigned-routines/:assignedId", trainerHandler.DeleteAssigned)
			trainer.POST("/challenges", trainerHandler.CreateChallenge)
			trainer.GET("/challenges", trainerHandler.ListMyChallenges)
		}

		authed.POST("/coach", trainerHandler.LinkCoach)
		authed.DELETE("/coach", trainerHandler.UnlinkCoach)
		authed.GET("/assigned-routines", trainerHandler.ListAssignedToMe)
		authed.GET("/challenges", trainerHandler.ListCoachChallenges)
		authed.POST("/challenges/:challengeId/join", trainerHandler.JoinChallenge)

		authed.GET("/notifications", notificationHandler.ListNotifications)
		authed.POST("/notifications/:notificationId/read", notificationHandler.MarkRead)

		billing := authed.Group("/billing")
		{
			billing.POST("/stripe/checkout", billingHandler.CreateCheckoutSession)
			billing.POST("/stripe/portal", billingHandler.CreatePortalSession)
			billing.POST("/mercadopago/preference", billingHandler.CreatePreference)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "ai": appConfig.AIEnabled()})
	})

	logger.Info("API routes configured under /api/v1 and /health")
}
