// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/rangebound/clmm-simulator/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveSimulationSnapshot saves a complete simulation snapshot to the database.
// The params_id of the currently active parameter set is recorded alongside so
// results can be traced back to the parameters that produced them.
func SaveSimulationSnapshot(snapshot types.SimulationSnapshot, paramsID *int64) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	// Marshal all JSONB fields
	requestJSON, err := json.Marshal(snapshot.Request)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	positionJSON, err := json.Marshal(snapshot.Position)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal position: %w", err)
	}

	amountsJSON, err := json.Marshal(snapshot.Amounts)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal amounts: %w", err)
	}

	curveJSON, err := json.Marshal(snapshot.Curve)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal il_curve: %w", err)
	}

	yieldJSON, err := json.Marshal(snapshot.Yield)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal yield_estimate: %w", err)
	}

	healthJSON, err := json.Marshal(snapshot.Health)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal health_report: %w", err)
	}

	rebalanceJSON, err := json.Marshal(snapshot.Rebalance)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal rebalance_scenario: %w", err)
	}

	query := `
		INSERT INTO simulation_snapshots (
			snapshot_timestamp, pool_id, params_id,
			request, position, amounts, position_value_usd,
			il_curve, yield_estimate, health_report, rebalance_scenario
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.Timestamp, snapshot.PoolID, paramsID,
		requestJSON, positionJSON, amountsJSON, snapshot.PositionValueUSD,
		curveJSON, yieldJSON, healthJSON, rebalanceJSON,
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save simulation snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Str("pool_id", snapshot.PoolID).
		Float64("position_value_usd", snapshot.PositionValueUSD).
		Msg("Simulation snapshot saved to database")

	return snapshotID, nil
}

// GetRecentSnapshots returns the most recent simulation snapshots for a pool,
// newest first. Pass an empty poolID to fetch across all pools.
func GetRecentSnapshots(poolID string, limit int) ([]types.SimulationSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT snapshot_id, snapshot_timestamp, pool_id,
			request, position, amounts, position_value_usd,
			il_curve, yield_estimate, health_report, rebalance_scenario
		FROM simulation_snapshots
		WHERE ($1 = '' OR pool_id = $1)
		ORDER BY snapshot_timestamp DESC
		LIMIT $2;
	`

	rows, err := DB.Query(query, poolID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.SimulationSnapshot
	for rows.Next() {
		var s types.SimulationSnapshot
		var requestJSON, positionJSON, amountsJSON, curveJSON, yieldJSON, healthJSON, rebalanceJSON []byte

		err := rows.Scan(
			&s.SnapshotID, &s.Timestamp, &s.PoolID,
			&requestJSON, &positionJSON, &amountsJSON, &s.PositionValueUSD,
			&curveJSON, &yieldJSON, &healthJSON, &rebalanceJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation snapshot row: %w", err)
		}

		if err := json.Unmarshal(requestJSON, &s.Request); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request for snapshot %d: %w", s.SnapshotID, err)
		}
		if err := json.Unmarshal(positionJSON, &s.Position); err != nil {
			return nil, fmt.Errorf("failed to unmarshal position for snapshot %d: %w", s.SnapshotID, err)
		}
		if err := json.Unmarshal(amountsJSON, &s.Amounts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal amounts for snapshot %d: %w", s.SnapshotID, err)
		}
		if err := json.Unmarshal(curveJSON, &s.Curve); err != nil {
			return nil, fmt.Errorf("failed to unmarshal il_curve for snapshot %d: %w", s.SnapshotID, err)
		}
		if err := json.Unmarshal(yieldJSON, &s.Yield); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yield_estimate for snapshot %d: %w", s.SnapshotID, err)
		}
		if err := json.Unmarshal(healthJSON, &s.Health); err != nil {
			return nil, fmt.Errorf("failed to unmarshal health_report for snapshot %d: %w", s.SnapshotID, err)
		}
		if len(rebalanceJSON) > 0 {
			if err := json.Unmarshal(rebalanceJSON, &s.Rebalance); err != nil {
				return nil, fmt.Errorf("failed to unmarshal rebalance_scenario for snapshot %d: %w", s.SnapshotID, err)
			}
		}

		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	log.Debug().
		Str("pool_id", poolID).
		Int("count", len(snapshots)).
		Msg("Loaded recent simulation snapshots")

	return snapshots, nil
}
