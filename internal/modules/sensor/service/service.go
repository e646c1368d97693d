package service

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"feedsensor/internal/modules/feed/fetch"
	"feedsensor/internal/modules/feed/shape"
	"feedsensor/internal/modules/sensor/domain"
	"feedsensor/internal/modules/sensor/repository"
	"feedsensor/internal/shared/config"
	sherrors "feedsensor/internal/shared/errors"
)

// sensorState is the runtime state of one registered sensor. The snapshot is
// owned exclusively by this sensor and replaced wholesale on every
// successful poll.
type sensorState struct {
	sensor   *domain.Sensor
	snapshot *domain.Snapshot
	status   domain.SensorStatus
	lastPoll time.Time
}

// Service owns the sensor registry and the polling loop
type Service struct {
	cfg     *config.Config
	repo    repository.Repository
	fetcher *fetch.Client
	parser  *gofeed.Parser
	sensors map[string]*sensorState
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new sensor service
func New(cfg *config.Config, repo repository.Repository, fetcher *fetch.Client) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:     cfg,
		repo:    repo,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
		sensors: make(map[string]*sensorState),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start seeds declared sensors, loads persisted ones and begins polling
func (s *Service) Start(ctx context.Context) {
	s.seedDeclaredSensors()

	sensors, err := s.repo.GetAllSensors()
	if err != nil {
		slog.Error("Failed to load sensors", "error", err)
	} else {
		for _, sensor := range sensors {
			if sensor.IsActive {
				s.register(sensor)
			}
		}
	}

	// Start polling loop
	s.wg.Add(1)
	go s.monitorLoop()
}

// Stop stops polling and waits for in-flight polls
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Create validates and registers a new sensor. The feed URL must be
// reachable (one bounded GET, the config-flow check) and not already
// configured; the new sensor is polled once before Create returns.
func (s *Service) Create(ctx context.Context, sensor *domain.Sensor) error {
	if sensor.Name == "" {
		return sherrors.ErrMissingName
	}
	if sensor.FeedURL == "" {
		return sherrors.ErrMissingFeedURL
	}

	existing, err := s.repo.GetAllSensors()
	if err != nil {
		return oops.With("context", "failed to list sensors").Wrap(err)
	}
	if lo.SomeBy(existing, func(e *domain.Sensor) bool { return e.FeedURL == sensor.FeedURL }) {
		return sherrors.ErrAlreadyConfigured
	}

	if err := s.fetcher.Probe(ctx, sensor.FeedURL); err != nil {
		slog.Warn("Feed reachability check failed", "feed_url", sensor.FeedURL, "error", err)
		return oops.With("feed_url", sensor.FeedURL).Wrap(sherrors.ErrCannotConnect)
	}

	sensor.ID = slugify(sensor.Name)
	sensor.ApplyDefaults()
	sensor.AddedAt = time.Now()
	sensor.IsActive = true

	if err := s.repo.SaveSensor(sensor); err != nil {
		return oops.With("sensor_id", sensor.ID, "context", "failed to save sensor").Wrap(err)
	}

	state := s.register(sensor)
	s.poll(state)
	return nil
}

// UpdateOptions replaces a sensor's display options wholesale and reloads
// it, discarding the previous snapshot.
func (s *Service) UpdateOptions(ctx context.Context, sensorID string, options config.SensorDef) error {
	s.mu.Lock()
	state, ok := s.sensors[sensorID]
	if !ok {
		s.mu.Unlock()
		return sherrors.ErrSensorNotFound
	}

	sensor := state.sensor
	sensor.DateFormat = options.DateFormat
	sensor.ShowTopN = options.ShowTopN
	sensor.LocalTime = options.LocalTime
	sensor.RemoveSummaryImage = options.RemoveSummaryImage
	sensor.Inclusions = options.Inclusions
	sensor.Exclusions = options.Exclusions
	sensor.ScanInterval = options.ScanInterval
	sensor.ApplyDefaults()

	// Reload: the old snapshot is discarded, the next poll rebuilds it
	state.snapshot = nil
	state.status = domain.SensorStatusPending
	state.lastPoll = time.Time{}
	s.mu.Unlock()

	if err := s.repo.SaveSensor(sensor); err != nil {
		return oops.With("sensor_id", sensorID, "context", "failed to save sensor").Wrap(err)
	}

	s.poll(state)
	return nil
}

// Delete removes a sensor from the registry and the store
func (s *Service) Delete(sensorID string) error {
	s.mu.Lock()
	_, ok := s.sensors[sensorID]
	delete(s.sensors, sensorID)
	s.mu.Unlock()

	if !ok {
		return sherrors.ErrSensorNotFound
	}
	return s.repo.DeleteSensor(sensorID)
}

// Refresh polls a sensor immediately
func (s *Service) Refresh(ctx context.Context, sensorID string) error {
	s.mu.RLock()
	state, ok := s.sensors[sensorID]
	s.mu.RUnlock()
	if !ok {
		return sherrors.ErrSensorNotFound
	}
	s.poll(state)
	return nil
}

// Get returns a sensor with its latest snapshot
func (s *Service) Get(sensorID string) (*domain.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sensors[sensorID]
	if !ok {
		return nil, sherrors.ErrSensorNotFound
	}
	return &domain.View{Sensor: state.sensor, Snapshot: state.snapshot, Status: state.status}, nil
}

// List returns all registered sensors sorted by name
func (s *Service) List() []*domain.View {
	s.mu.RLock()
	views := lo.MapToSlice(s.sensors, func(_ string, state *sensorState) *domain.View {
		return &domain.View{Sensor: state.sensor, Snapshot: state.snapshot, Status: state.status}
	})
	s.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].Sensor.Name < views[j].Sensor.Name })
	return views
}

// seedDeclaredSensors persists config-file sensors that are not stored yet.
func (s *Service) seedDeclaredSensors() {
	for _, def := range s.cfg.Sensors {
		if def.Name == "" || def.FeedURL == "" {
			slog.Warn("Skipping declared sensor without name or feed_url", "name", def.Name)
			continue
		}
		id := slugify(def.Name)
		if _, err := s.repo.GetSensor(id); err == nil {
			continue
		}
		sensor := &domain.Sensor{
			ID:                 id,
			Name:               def.Name,
			FeedURL:            def.FeedURL,
			DateFormat:         def.DateFormat,
			ShowTopN:           def.ShowTopN,
			LocalTime:          def.LocalTime,
			RemoveSummaryImage: def.RemoveSummaryImage,
			Inclusions:         def.Inclusions,
			Exclusions:         def.Exclusions,
			ScanInterval:       def.ScanInterval,
			AddedAt:            time.Now(),
			IsActive:           true,
		}
		sensor.ApplyDefaults()
		if err := s.repo.SaveSensor(sensor); err != nil {
			slog.Error("Failed to seed declared sensor", "sensor_id", id, "error", err)
		}
	}
}

func (s *Service) register(sensor *domain.Sensor) *sensorState {
	state := &sensorState{sensor: sensor, status: domain.SensorStatusPending}
	s.mu.Lock()
	s.sensors[sensor.ID] = state
	s.mu.Unlock()
	return state
}

func (s *Service) monitorLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.cfg.UpdateInterval) * time.Second)
	defer ticker.Stop()

	// Initial check
	s.checkSensors()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkSensors()
		}
	}
}

func (s *Service) checkSensors() {
	s.mu.RLock()
	due := make([]*sensorState, 0, len(s.sensors))
	now := time.Now()
	for _, state := range s.sensors {
		interval := time.Duration(s.cfg.UpdateInterval) * time.Second
		if state.sensor.ScanInterval > 0 {
			interval = time.Duration(state.sensor.ScanInterval) * time.Second
		}
		if state.lastPoll.IsZero() || now.Sub(state.lastPoll) >= interval {
			due = append(due, state)
		}
	}
	s.mu.RUnlock()

	for _, state := range due {
		s.wg.Add(1)
		go func(state *sensorState) {
			defer s.wg.Done()
			s.poll(state)
		}(state)
	}
}

// poll fetches, parses and shapes one sensor's feed. A fetch or parse
// failure leaves the previous snapshot stale and marks the sensor
// unavailable until the next scheduled poll. Option fields are copied under
// the lock so a concurrent options update cannot race the shaping pass.
func (s *Service) poll(state *sensorState) {
	s.mu.Lock()
	sensor := state.sensor
	sensorID := sensor.ID
	feedURL := sensor.FeedURL
	topN := sensor.ShowTopN
	opts := shape.Options{
		DateFormat:         sensor.DateFormat,
		Inclusions:         sensor.Inclusions,
		Exclusions:         sensor.Exclusions,
		LocalTime:          sensor.LocalTime,
		RemoveSummaryImage: sensor.RemoveSummaryImage,
	}
	state.lastPoll = time.Now()
	s.mu.Unlock()

	slog.Debug("Polling feed", "sensor_id", sensorID, "feed_url", feedURL)

	body, err := s.fetcher.Fetch(s.ctx, feedURL)
	if err != nil {
		slog.Error("Error fetching feed", "sensor_id", sensorID, "error", err)
		s.setStatus(state, domain.SensorStatusUnavailable)
		return
	}

	feed, err := s.parser.Parse(bytes.NewReader(body))
	if err != nil {
		slog.Error("Error parsing feed", "sensor_id", sensorID, "error", err)
		s.setStatus(state, domain.SensorStatusUnavailable)
		return
	}

	snapshot := buildSnapshot(feed, opts, topN)

	s.mu.Lock()
	state.snapshot = snapshot
	state.status = domain.SensorStatusOk
	s.mu.Unlock()

	if snapshot.State == nil {
		slog.Warn("No data received", "sensor_id", sensorID)
	} else if *snapshot.State == 0 {
		slog.Warn("No entries found", "sensor_id", sensorID)
	} else {
		slog.Debug("Sensor state updated", "sensor_id", sensorID, "entries", *snapshot.State)
	}
}

func (s *Service) setStatus(state *sensorState, status domain.SensorStatus) {
	s.mu.Lock()
	state.status = status
	s.mu.Unlock()
}

// buildSnapshot runs the field-shaping pass over a parsed feed. The state is
// nil when the parse produced no feed-level data, in which case entry
// generation is skipped even if items are present; 0 when the feed has no
// entries; otherwise the entry count capped at show_topn.
func buildSnapshot(feed *gofeed.Feed, opts shape.Options, topN int) *domain.Snapshot {
	snapshot := &domain.Snapshot{
		Channel:   map[string]any{},
		Entries:   []domain.EntryRecord{},
		FetchedAt: time.Now(),
	}

	channelMap := shape.ChannelMap(feed)
	if len(channelMap) == 0 {
		return snapshot
	}
	snapshot.Channel = shape.ChannelInfo(channelMap, opts)

	count := len(feed.Items)
	if count > topN {
		count = topN
	}
	snapshot.State = &count

	snapshot.Entries = lo.Map(feed.Items[:count], func(item *gofeed.Item, _ int) domain.EntryRecord {
		return shape.Entry(shape.EntryMap(item), opts)
	})

	return snapshot
}

// slugify turns a sensor name into a URL-safe identifier
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
