// file: routes/router.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/config"
	"github.com/lqSky7/pwncore/controllers"
	"github.com/lqSky7/pwncore/middlewares"
)

func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", controllers.Signup)
			auth.POST("/login", controllers.Login)
		}

		team := api.Group("/team")
		team.Use(middlewares.JWTAuthMiddleware([]byte(cfg.JWTSecret)))
		{
			team.POST("", controllers.CreateTeam)
			team.POST("/join", controllers.JoinTeam)
			team.POST("/leave", controllers.LeaveTeam)
			team.GET("", controllers.GetTeam)
			team.GET("/containers", controllers.ListContainers)
			team.POST("/containers/stopall", controllers.StopAllContainers)
		}

		ctf := api.Group("/ctf")
		ctf.Use(middlewares.JWTAuthMiddleware([]byte(cfg.JWTSecret)))
		{
			ctf.GET("", controllers.ListCTFs)
			ctf.GET("/:id", controllers.GetCTF)
			ctf.POST("/:id/flag", controllers.SubmitFlag)
			ctf.GET("/:id/hint", controllers.UnlockHint)

			ctf.POST("/:id/start", controllers.StartContainer)
			ctf.POST("/:id/stop", controllers.StopContainer)
		}
	}

	return r
}
