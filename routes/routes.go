package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"medibook/handlers"
	"medibook/middleware"
)

// RegisterWizardRoutes registers the appointment-wizard endpoints. All of
// them are patient-gated.
func RegisterWizardRoutes(r *gin.Engine, wh *handlers.WizardHandler) {
	api := r.Group("/api/wizard")
	api.Use(middleware.PatientAuthMiddleware())
	{
		api.POST("/session", wh.StartSession)
		api.GET("/session/:sessionID", wh.GetSession)
		api.GET("/session/:sessionID/doctors", wh.ListDoctors)
		api.POST("/session/:sessionID/doctor", wh.SelectDoctor)
		api.POST("/session/:sessionID/date", wh.SelectDate)
		api.POST("/session/:sessionID/slots/refresh", wh.RefreshSlots)
		api.POST("/session/:sessionID/time", wh.SelectTime)
		api.POST("/session/:sessionID/time/confirm", wh.ConfirmTime)
		api.POST("/session/:sessionID/prescription", wh.SubmitPrescription)
		api.POST("/session/:sessionID/patient", wh.SubmitPatient)
		api.POST("/session/:sessionID/back", wh.Back)
		api.DELETE("/session/:sessionID", wh.CancelSession)
	}
}

// RegisterConfirmationRoutes registers history and payment endpoints used by
// the confirmation step.
func RegisterConfirmationRoutes(r *gin.Engine, ch *handlers.ConfirmationHandler) {
	api := r.Group("/api/appointments")
	api.Use(middleware.PatientAuthMiddleware())
	{
		api.GET("", ch.ListAppointments)
		api.GET("/latest", ch.LatestAppointment)
	}

	pay := r.Group("/api/payment")
	pay.Use(middleware.PatientAuthMiddleware())
	{
		pay.POST("/capture", ch.CapturePayment)
	}
}

// RegisterRoutes wires every route group plus CORS and a health probe.
func RegisterRoutes(r *gin.Engine, wh *handlers.WizardHandler, ch *handlers.ConfirmationHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterWizardRoutes(r, wh)
	RegisterConfirmationRoutes(r, ch)
}
