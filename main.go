// file: main.go
package main

import (
	"context"
	"log"

	"github.com/lqSky7/pwncore/config"
	"github.com/lqSky7/pwncore/controllers"
	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/routes"
	"github.com/lqSky7/pwncore/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database.Connect(cfg.DBDSN)
	database.MigrateTables()

	var history services.FlagHistory = services.NewMemoryFlagHistory()
	if cfg.RedisAddr != "" {
		database.InitRedis(cfg.RedisAddr)
		history = services.NewRedisFlagHistory(database.RDB)
	}

	docker, err := services.NewDockerService(cfg.DockerHost)
	if err != nil {
		log.Fatalf("Failed to create docker client: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.DockerTimeout)
	if err := docker.Ping(pingCtx); err != nil {
		log.Fatalf("Failed to reach docker daemon: %v", err)
	}
	cancel()

	ports, err := services.NewPortAllocator(cfg.PortLow, cfg.PortHigh)
	if err != nil {
		log.Fatalf("Failed to create port allocator: %v", err)
	}

	engine := services.NewContainerService(
		services.EngineConfig{
			MaxContainersPerTeam: cfg.MaxContainersPerTeam,
			DockerTimeout:        cfg.DockerTimeout,
			ContainerTTL:         cfg.ContainerTTL,
			SweepInterval:        cfg.SweepInterval,
		},
		services.NewRegistry(),
		ports,
		services.NewFlagGenerator(cfg.Flag, history),
		docker,
		&services.GormProblemProvider{DB: database.DB},
	)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go engine.RunSweeper(sweepCtx)

	controllers.Setup(cfg, engine)
	r := routes.SetupRouter(cfg)

	log.Printf("Starting server on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
