// file: services/container_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/lqSky7/pwncore/models"
)

const (
	engineRetries      = 3
	engineRetryBackoff = 300 * time.Millisecond
)

// ProblemProvider is the engine's read-only view of the problem store.
type ProblemProvider interface {
	GetProblem(ctx context.Context, problemID uint32) (*models.Problem, error)
}

// GormProblemProvider reads problems from the relational store.
type GormProblemProvider struct {
	DB *gorm.DB
}

func (p *GormProblemProvider) GetProblem(ctx context.Context, problemID uint32) (*models.Problem, error) {
	var prob models.Problem
	err := p.DB.WithContext(ctx).First(&prob, problemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProblemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prob, nil
}

// EngineConfig is the immutable tuning the engine is built with.
type EngineConfig struct {
	MaxContainersPerTeam int
	DockerTimeout        time.Duration
	ContainerTTL         time.Duration
	SweepInterval        time.Duration
}

// StartResult is handed back to the route layer on a successful start.
type StartResult struct {
	Port int
	Flag string
}

// StopReport collects per-problem outcomes of a team-wide stop. One stuck
// container must not block releasing the others.
type StopReport struct {
	Stopped []uint32
	Failed  map[uint32]error
}

// ContainerService coordinates the registry, port allocator, flag generator
// and docker adapter. Operations for the same team are serialized; different
// teams proceed independently.
type ContainerService struct {
	cfg      EngineConfig
	registry *Registry
	ports    *PortAllocator
	flags    *FlagGenerator
	docker   DockerAdapter
	problems ProblemProvider

	teamMu    sync.Mutex
	teamLocks map[uint32]*sync.Mutex
}

func NewContainerService(cfg EngineConfig, registry *Registry, ports *PortAllocator, flags *FlagGenerator, docker DockerAdapter, problems ProblemProvider) *ContainerService {
	return &ContainerService{
		cfg:       cfg,
		registry:  registry,
		ports:     ports,
		flags:     flags,
		docker:    docker,
		problems:  problems,
		teamLocks: make(map[uint32]*sync.Mutex),
	}
}

// lockTeam returns the mutex serializing operations for one team.
func (s *ContainerService) lockTeam(teamID uint32) *sync.Mutex {
	s.teamMu.Lock()
	defer s.teamMu.Unlock()
	mu, ok := s.teamLocks[teamID]
	if !ok {
		mu = &sync.Mutex{}
		s.teamLocks[teamID] = mu
	}
	return mu
}

// StartContainer provisions an instance for the pair. Limit checks, port
// and flag allocation and the Starting insert happen under the team lock;
// the slow docker call runs outside it, with unconditional rollback on
// failure so no partial state survives.
func (s *ContainerService) StartContainer(ctx context.Context, teamID, problemID uint32) (*StartResult, error) {
	mu := s.lockTeam(teamID)
	mu.Lock()

	if _, ok := s.registry.Get(teamID, problemID); ok {
		mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if s.registry.CountActive(teamID) >= s.cfg.MaxContainersPerTeam {
		mu.Unlock()
		return nil, ErrContainerLimit
	}

	// Looked up after the pair and limit checks so a team over its limit
	// hears about the limit, not about the problem it named.
	prob, err := s.problems.GetProblem(ctx, problemID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	exposed, err := prob.ExposedPort()
	if err != nil {
		mu.Unlock()
		return nil, &ProvisioningError{Err: err}
	}

	port, err := s.ports.Allocate()
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	flag, err := s.flags.Generate(ctx, teamID, problemID)
	if err != nil {
		s.ports.Release(port)
		mu.Unlock()
		return nil, &ProvisioningError{Err: err}
	}

	inst := Instance{
		TeamID:    teamID,
		ProblemID: problemID,
		Port:      port,
		Flag:      flag,
		StartedAt: time.Now(),
		State:     StateStarting,
	}
	if err := s.registry.Insert(inst); err != nil {
		s.ports.Release(port)
		mu.Unlock()
		return nil, err
	}
	mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, s.cfg.DockerTimeout)
	handle, err := s.docker.CreateAndStart(dctx, ContainerSpec{
		Name:        fmt.Sprintf("pwncore-%d-%d", teamID, problemID),
		Image:       prob.ImageName,
		ExposedPort: exposed,
		HostPort:    port,
		Flag:        flag,
	})
	cancel()
	if err != nil {
		// Roll back; the flag stays burned in the history and is never reissued.
		s.registry.Remove(teamID, problemID)
		s.ports.Release(port)
		return nil, err
	}

	s.registry.SetHandle(teamID, problemID, handle)
	s.registry.SetState(teamID, problemID, StateRunning)
	return &StartResult{Port: port, Flag: flag}, nil
}

// StopContainer tears down the pair's running instance: kill then delete,
// each with bounded retries. The port is released as soon as the kill lands;
// an instance whose kill never lands is marked stuck and kept on record.
func (s *ContainerService) StopContainer(ctx context.Context, teamID, problemID uint32) error {
	mu := s.lockTeam(teamID)
	mu.Lock()
	inst, ok := s.registry.Get(teamID, problemID)
	if !ok || inst.State != StateRunning {
		mu.Unlock()
		return ErrContainerNotFound
	}
	s.registry.SetState(teamID, problemID, StateStopping)
	mu.Unlock()

	if err := s.withRetry(ctx, func(dctx context.Context) error {
		return s.docker.Kill(dctx, inst.Handle)
	}); err != nil {
		s.registry.SetState(teamID, problemID, StateStuck)
		log.Printf("container %s (team %d, problem %d) could not be killed, kept for manual cleanup: %v",
			inst.Handle, teamID, problemID, err)
		return err
	}

	// Confirmed dead: the port reservation is free even if delete fails.
	s.ports.Release(inst.Port)

	if err := s.withRetry(ctx, func(dctx context.Context) error {
		return s.docker.Delete(dctx, inst.Handle)
	}); err != nil {
		s.registry.SetState(teamID, problemID, StateStuck)
		log.Printf("container %s (team %d, problem %d) killed but not deleted, kept for manual cleanup: %v",
			inst.Handle, teamID, problemID, err)
		return err
	}

	s.registry.Remove(teamID, problemID)
	return nil
}

// StopAllForTeam applies StopContainer to every running instance of the
// team, collecting per-problem failures instead of aborting the batch.
func (s *ContainerService) StopAllForTeam(ctx context.Context, teamID uint32) StopReport {
	report := StopReport{Failed: make(map[uint32]error)}
	for _, inst := range s.registry.ListTeam(teamID) {
		if inst.State != StateRunning {
			continue
		}
		if err := s.StopContainer(ctx, teamID, inst.ProblemID); err != nil {
			if errors.Is(err, ErrContainerNotFound) {
				continue // raced with another stop, nothing left to do
			}
			report.Failed[inst.ProblemID] = err
			continue
		}
		report.Stopped = append(report.Stopped, inst.ProblemID)
	}
	return report
}

// InstanceFlag exposes the live flag for the pair so the solve path can
// validate submissions against it.
func (s *ContainerService) InstanceFlag(teamID, problemID uint32) (string, bool) {
	inst, ok := s.registry.Get(teamID, problemID)
	if !ok || inst.State != StateRunning {
		return "", false
	}
	return inst.Flag, true
}

// ListTeam returns the team's current instances.
func (s *ContainerService) ListTeam(teamID uint32) []Instance {
	return s.registry.ListTeam(teamID)
}

// RunSweeper force-stops instances older than the configured TTL until ctx
// is cancelled. Run it on its own goroutine.
func (s *ContainerService) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
		}
	}
}

// SweepExpired runs one expiry pass.
func (s *ContainerService) SweepExpired(ctx context.Context) {
	for _, inst := range s.registry.Expired(s.cfg.ContainerTTL) {
		err := s.StopContainer(ctx, inst.TeamID, inst.ProblemID)
		switch {
		case err == nil:
			log.Printf("expired container stopped (team %d, problem %d, age > %s)",
				inst.TeamID, inst.ProblemID, s.cfg.ContainerTTL)
		case errors.Is(err, ErrContainerNotFound):
			// already gone
		default:
			log.Printf("expiry sweep failed for team %d, problem %d: %v", inst.TeamID, inst.ProblemID, err)
		}
	}
}

// withRetry runs op with the per-call timeout, retrying retryable engine
// errors a bounded number of times with doubling backoff.
func (s *ContainerService) withRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := engineRetryBackoff
	var err error
	for attempt := 0; attempt < engineRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		dctx, cancel := context.WithTimeout(ctx, s.cfg.DockerTimeout)
		err = op(dctx)
		cancel()
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}
