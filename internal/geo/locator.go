package geo

import (
	"context"
	"errors"
)

var ErrLocationUnavailable = errors.New("current location unavailable")

type Accuracy int

const (
	AccuracyLow Accuracy = iota
	AccuracyBalanced
	AccuracyHigh
)

// Locator yields the device's current position.
type Locator interface {
	CurrentPosition(ctx context.Context, accuracy Accuracy) (Point, error)
}

// ReportedLocator serves the fix the device attached to its request. A nil
// Point means the device had no fix.
type ReportedLocator struct {
	Point *Point
}

func (l ReportedLocator) CurrentPosition(ctx context.Context, _ Accuracy) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}
	if l.Point == nil {
		return Point{}, ErrLocationUnavailable
	}
	if err := l.Point.Validate(); err != nil {
		return Point{}, err
	}
	return *l.Point, nil
}
