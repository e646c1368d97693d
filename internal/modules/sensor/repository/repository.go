package repository

import (
	"feedsensor/internal/modules/sensor/domain"
)

// Repository defines the interface for sensor config persistence
// This abstraction allows easy replacement of storage implementations
// (e.g., FileStorage -> PostgreSQL -> MongoDB)
type Repository interface {
	SaveSensor(sensor *domain.Sensor) error
	GetSensor(sensorID string) (*domain.Sensor, error)
	GetAllSensors() ([]*domain.Sensor, error)
	DeleteSensor(sensorID string) error
}
