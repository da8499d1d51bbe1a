package api

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/service"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Catalog    service.CatalogService
	Routines   service.RoutineService
	Activation service.ActivationService
	Sessions   service.SessionService
}

// CORSConfig is the browser policy for the member and trainer web apps.
func CORSConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
	}
	if len(allowOrigins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func SetupRoutes(router *gin.Engine, jwtSecret string, log *logger.Logger, allowOrigins []string, svc Services) {
	catalogHandler := NewCatalogHandler(svc.Catalog)
	routineHandler := NewRoutineHandler(svc.Routines, svc.Activation, svc.Catalog)
	sessionHandler := NewSessionHandler(svc.Sessions)

	router.Use(RequestID(), RequestLogger(log), cors.New(CORSConfig(allowOrigins)))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		catalogEditors := RoleMiddleware(domain.RoleAdmin, domain.RoleStaff, domain.RoleTrainer)
		catalogAdmins := RoleMiddleware(domain.RoleAdmin, domain.RoleStaff)
		routineAuthors := RoleMiddleware(domain.RoleAdmin, domain.RoleTrainer)
		coaches := RoleMiddleware(domain.RoleAdmin, domain.RoleStaff, domain.RoleTrainer)

		// --- Catalog ---
		groups := protected.Group("/muscle-groups")
		{
			groups.GET("", catalogHandler.ListMuscleGroups)
			groups.GET("/:groupId", catalogHandler.GetMuscleGroup)
			groups.POST("", catalogAdmins, catalogHandler.CreateMuscleGroup)
			groups.PUT("/:groupId", catalogAdmins, catalogHandler.UpdateMuscleGroup)
			groups.DELETE("/:groupId", catalogAdmins, catalogHandler.DeleteMuscleGroup)
		}

		exercises := protected.Group("/exercises")
		{
			exercises.GET("", catalogHandler.ListExercises)
			exercises.GET("/:exerciseId", catalogHandler.GetExercise)
			exercises.POST("", catalogEditors, catalogHandler.CreateExercise)
			exercises.PUT("/:exerciseId", catalogEditors, catalogHandler.UpdateExercise)
			exercises.DELETE("/:exerciseId", catalogEditors, catalogHandler.DeactivateExercise)
			exercises.GET("/:exerciseId/media", catalogHandler.ListMedia)
			exercises.POST("/:exerciseId/media", catalogEditors, catalogHandler.RequestMediaUpload)
		}

		// --- Routines ---
		routines := protected.Group("/routines")
		{
			routines.POST("", routineAuthors, routineHandler.CreateRoutine)
			routines.GET("", coaches, routineHandler.ListRoutines)
			routines.GET("/:routineId", routineHandler.GetRoutine)
			routines.PATCH("/:routineId", routineAuthors, routineHandler.UpdateRoutine)
			routines.DELETE("/:routineId", routineAuthors, routineHandler.DeleteRoutine)
			routines.GET("/:routineId/days/:day", routineHandler.GetRoutineDay)
			routines.POST("/:routineId/days/:day/exercises", routineAuthors, routineHandler.AddRoutineExercise)
			routines.DELETE("/:routineId/days/:day/exercises/:index", routineAuthors, routineHandler.RemoveRoutineExercise)
			routines.POST("/:routineId/activate", routineAuthors, routineHandler.ActivateRoutine)
			routines.POST("/:routineId/notify", routineAuthors, routineHandler.NotifyMember)
		}

		// --- Member views ---
		me := protected.Group("/me")
		{
			me.GET("/routine", routineHandler.GetMyActiveRoutine)
			me.GET("/routines", routineHandler.ListMyRoutines)
			me.GET("/sessions", sessionHandler.ListMySessions)
		}
		protected.GET("/members/:memberId/sessions", coaches, sessionHandler.ListMemberSessions)

		// --- Sessions ---
		sessions := protected.Group("/sessions")
		{
			sessions.POST("", sessionHandler.StartSession)
			sessions.GET("/:sessionId", sessionHandler.GetSession)
			sessions.POST("/:sessionId/logs", sessionHandler.LogExercise)
			sessions.POST("/:sessionId/complete", sessionHandler.CompleteSession)
			sessions.DELETE("/:sessionId", sessionHandler.DeleteSession)
		}
	}
}
