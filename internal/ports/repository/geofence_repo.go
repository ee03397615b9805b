package repository

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GeofenceRepository evaluates point-in-fence containment with PostGIS.
// The fence shapes themselves (polygons and circles stored as geography)
// are authored and persisted by the Events subsystem.
type GeofenceRepository struct {
	DB *sql.DB
}

func NewGeofenceRepository(db *sql.DB) *GeofenceRepository {
	return &GeofenceRepository{DB: db}
}

// IsInsideAnyFence reports whether the coordinate lies inside any geofence
// defined for the event. An event with no fences yields false (fail-closed).
func (r *GeofenceRepository) IsInsideAnyFence(ctx context.Context, eventID string, lon, lat float64) (bool, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.eventId", eventID))

	query := `SELECT EXISTS (
                  SELECT 1 FROM geofences
                  WHERE event_id = $1
                    AND ST_Covers(area, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
              )`

	var inside bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, lon, lat).Scan(&inside); err != nil {
		return false, err
	}
	return inside, nil
}
