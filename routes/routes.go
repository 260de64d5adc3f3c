package routes

import (
	"net/http"

	"commune/checkin"
	"commune/events"
	"commune/incidents"
	"commune/live"
	"commune/members"
	"commune/middleware"
	"commune/ratelim"
	"commune/register"
	"commune/settings"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter, hub *live.Hub) {
	AddStaticRoutes(router)
	AddSettingsRoutes(router, rl)
	AddEventsRoutes(router, rl)
	AddRegistrationRoutes(router, rl)
	AddCheckinRoutes(router, rl)
	AddIncidentRoutes(router, rl)
	AddMemberRoutes(router, rl)
	AddLiveRoutes(router, rl, hub)
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/eventpic/*filepath", http.Dir("static/eventpic"))
}

func AddSettingsRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/settings", rl.Limit(settings.GetSettings))
	router.GET("/api/settings/:key", rl.Limit(settings.GetSetting))
	router.PUT("/api/settings/:key", rl.Limit(middleware.RequireRole("steward", settings.UpdateSetting)))
	router.PUT("/api/settings", rl.Limit(middleware.RequireRole("steward", settings.UpdateSettings)))
}

func AddEventsRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/events/events", rl.Limit(events.GetEvents))
	router.POST("/api/events/event", middleware.RequireRole("organizer", events.CreateEvent))
	router.GET("/api/events/event/:eventid", events.GetEvent)
	router.PUT("/api/events/event/:eventid", middleware.RequireRole("organizer", events.EditEvent))
	router.DELETE("/api/events/event/:eventid", middleware.RequireRole("organizer", events.DeleteEvent))
	router.POST("/api/events/event/:eventid/banner", middleware.RequireRole("organizer", events.UploadBanner))

	router.POST("/api/events/event/:eventid/sessions", middleware.RequireRole("organizer", events.CreateSession))
	router.GET("/api/events/event/:eventid/sessions", rl.Limit(events.GetSessions))
	router.PUT("/api/events/event/:eventid/sessions/:sessionid", middleware.RequireRole("organizer", events.EditSession))
	router.DELETE("/api/events/event/:eventid/sessions/:sessionid", middleware.RequireRole("organizer", events.DeleteSession))
}

func AddRegistrationRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/register/event/:eventid/availability", rl.Limit(register.GetAvailability))
	router.GET("/api/register/event/:eventid/can-register", rl.Limit(middleware.Authenticate(register.CheckRegistration)))
	router.POST("/api/register/event/:eventid/session/:sessionid", rl.Limit(middleware.Authenticate(register.CreateRegistration)))
	router.DELETE("/api/register/registration/:registrationid", rl.Limit(middleware.Authenticate(register.CancelRegistration)))
	router.GET("/api/register/mine", rl.Limit(middleware.Authenticate(register.GetMyRegistrations)))
}

func AddCheckinRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/checkin/verify/:eventid", rl.Limit(checkin.VerifyPass))
	router.POST("/api/checkin/event/:eventid", rl.Limit(middleware.RequireRole("organizer", checkin.CheckIn)))
	router.GET("/api/checkin/event/:eventid", rl.Limit(middleware.RequireRole("organizer", checkin.GetCheckIns)))
	router.GET("/api/checkin/print/:eventid", rl.Limit(checkin.PrintPass))
}

func AddIncidentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/incidents", rl.Limit(middleware.Authenticate(incidents.SubmitIncident)))
	router.GET("/api/incidents", rl.Limit(middleware.RequireRole("steward", incidents.GetIncidents)))
	router.PUT("/api/incidents/:incidentid", rl.Limit(middleware.RequireRole("steward", incidents.ReviewIncident)))
}

func AddMemberRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/members/apply", rl.Limit(middleware.Authenticate(members.Apply)))
	router.GET("/api/members/applications", rl.Limit(middleware.RequireRole("steward", members.GetApplications)))
	router.GET("/api/members/member/:userid", rl.Limit(middleware.Authenticate(members.GetMember)))
	router.PUT("/api/members/member/:userid/review", rl.Limit(middleware.RequireRole("steward", members.ReviewApplication)))
}

func AddLiveRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, hub *live.Hub) {
	router.GET("/api/events/event/:eventid/updates", rl.Limit(live.EventUpdates(hub)))
}
