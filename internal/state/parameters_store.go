// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

// SaveFeeParameters saves a new version of dynamic fee parameters.
func SaveFeeParameters(params types.FeeParams, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if err := params.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to save invalid fee parameters: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE fee_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO fee_parameters (
            version, config_name, is_active, activated_at, created_at,
            min_fee_ppm, max_fee_ppm, amplification, decay
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9
        ) RETURNING params_id;`

	var paramsID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		uint32(params.MinFee), uint32(params.MaxFee),
		params.Amplification.String(), params.Decay.String(),
	).Scan(&paramsID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert fee parameters: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("config", configName).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved fee parameters")
	return paramsID, nil
}

// LoadActiveFeeParameters loads the currently active fee parameters.
func LoadActiveFeeParameters(configName string) (*types.FeeParams, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT min_fee_ppm, max_fee_ppm, amplification, decay
        FROM fee_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var minFee, maxFee uint32
	var amplification, decay string
	row := DB.QueryRow(query, configName)
	err := row.Scan(&minFee, &maxFee, &amplification, &decay)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no active fee parameters found for config '%s'", configName)
		}
		return nil, fmt.Errorf("failed to scan active fee parameters for config '%s': %w", configName, err)
	}

	params, err := buildFeeParams(minFee, maxFee, amplification, decay)
	if err != nil {
		return nil, fmt.Errorf("stored fee parameters for config '%s' are invalid: %w", configName, err)
	}
	log.Info().Str("config", configName).Msg("Loaded active fee parameters")
	return params, nil
}

// GetActiveFeeParametersID returns the params_id of the currently active fee
// parameters, or nil when none are active.
func GetActiveFeeParametersID(configName string) (*int64, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT params_id
        FROM fee_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var paramsID int64
	row := DB.QueryRow(query, configName)
	err := row.Scan(&paramsID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debug().Str("config", configName).Msg("No active fee parameters found")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active fee parameters ID for config '%s': %w", configName, err)
	}

	return &paramsID, nil
}

func buildFeeParams(minFee, maxFee uint32, amplification, decay string) (*types.FeeParams, error) {
	minPermill, err := fixedpoint.NewPermill(minFee)
	if err != nil {
		return nil, err
	}
	maxPermill, err := fixedpoint.NewPermill(maxFee)
	if err != nil {
		return nil, err
	}
	ampDec, err := sdkmath.LegacyNewDecFromStr(amplification)
	if err != nil {
		return nil, fmt.Errorf("bad amplification value %q: %w", amplification, err)
	}
	decayDec, err := sdkmath.LegacyNewDecFromStr(decay)
	if err != nil {
		return nil, fmt.Errorf("bad decay value %q: %w", decay, err)
	}

	params := types.FeeParams{
		MinFee:        minPermill,
		MaxFee:        maxPermill,
		Amplification: ampDec,
		Decay:         decayDec,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}
