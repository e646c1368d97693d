package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"feedsensor/internal/modules/sensor/domain"
	sherrors "feedsensor/internal/shared/errors"
)

// FileStorage persists sensor configs as one JSON file per sensor under
// <basePath>/sensors. Snapshots are never persisted.
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "sensors"), 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}
	return &FileStorage{basePath: basePath}, nil
}

func (s *FileStorage) SaveSensor(sensor *domain.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.sensorPath(sensor.ID)
	data, err := json.MarshalIndent(sensor, "", "  ")
	if err != nil {
		return oops.With("sensor_id", sensor.ID, "context", "failed to marshal sensor").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}

func (s *FileStorage) GetSensor(sensorID string) (*domain.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.sensorPath(sensorID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sherrors.ErrSensorNotFound
		}
		return nil, oops.With("sensor_id", sensorID, "context", "failed to read sensor").Wrap(err)
	}

	var sensor domain.Sensor
	if err := json.Unmarshal(data, &sensor); err != nil {
		return nil, oops.With("sensor_id", sensorID, "context", "failed to unmarshal sensor").Wrap(err)
	}

	return &sensor, nil
}

func (s *FileStorage) GetAllSensors() ([]*domain.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.basePath, "sensors")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.With("context", "failed to read sensors directory").Wrap(err)
	}

	// Use lo.FilterMap to process entries
	sensors := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.Sensor, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, false
		}

		var sensor domain.Sensor
		if err := json.Unmarshal(data, &sensor); err != nil {
			return nil, false
		}

		return &sensor, true
	})

	return sensors, nil
}

func (s *FileStorage) DeleteSensor(sensorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return os.Remove(s.sensorPath(sensorID))
}

func (s *FileStorage) sensorPath(sensorID string) string {
	return filepath.Join(s.basePath, "sensors", sensorID+".json")
}
