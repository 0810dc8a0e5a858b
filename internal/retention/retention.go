package retention

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/drawspace/sync-server/internal/board"
)

type Config struct {
	Interval            time.Duration
	MaxStrokesPerCanvas int
}

func DefaultConfig() Config {
	return Config{
		Interval:            5 * time.Minute,
		MaxStrokesPerCanvas: 0,
	}
}

// Service periodically trims every canvas down to the configured stroke cap.
// The engine enforces the same cap inline on append; the sweep catches
// canvases that grew while the cap was raised or disabled. A cap of 0 turns
// the service off.
type Service struct {
	engine *board.Engine
	config Config
	log    *zap.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
}

func New(engine *board.Engine, config Config, log *zap.Logger) *Service {
	return &Service{
		engine: engine,
		config: config,
		log:    log,
		stop:   make(chan struct{}),
	}
}

func (s *Service) Start() {
	if s.config.MaxStrokesPerCanvas <= 0 {
		s.log.Info("retention sweep disabled")
		return
	}

	s.wg.Add(1)
	go s.run()
	s.log.Info("retention sweep started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("maxStrokesPerCanvas", s.config.MaxStrokesPerCanvas))
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.CompactNow()
		}
	}
}

// CompactNow runs one sweep, returning the number of strokes dropped.
func (s *Service) CompactNow() int {
	dropped := s.engine.TrimHistory(s.config.MaxStrokesPerCanvas)
	if dropped > 0 {
		s.log.Info("trimmed stroke history", zap.Int("dropped", dropped))
	}
	return dropped
}
