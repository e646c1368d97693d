//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// SensorStatus represents the availability of a sensor
// ENUM(pending,ok,unavailable)
type SensorStatus string
