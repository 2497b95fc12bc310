package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// Store handles persistence of command definitions and version snapshots.
type Store struct {
	db *sql.DB
}

// NewStore creates a new definition store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const definitionColumns = `id, owner, name, display_name, description, template_text, kind,
	domain, category, parameters, metadata, version, is_active, is_shared,
	usage_count, last_used_at, created_at, updated_at`

func scanDefinition(row interface{ Scan(...interface{}) error }) (*types.CommandDefinition, error) {
	var def types.CommandDefinition
	var paramsJSON, metaJSON string
	var lastUsed sql.NullTime

	err := row.Scan(
		&def.ID, &def.Owner, &def.Name, &def.DisplayName, &def.Description,
		&def.TemplateText, &def.Kind, &def.Domain, &def.Category, &paramsJSON, &metaJSON,
		&def.Version, &def.Active, &def.Shared, &def.UsageCount, &lastUsed,
		&def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastUsed.Valid {
		def.LastUsedAt = &lastUsed.Time
	}
	if err := json.Unmarshal([]byte(paramsJSON), &def.Parameters); err != nil {
		return nil, errors.Wrapf(err, "unmarshal parameters for %s", def.ID)
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &def.Metadata); err != nil {
			return nil, errors.Wrapf(err, "unmarshal metadata for %s", def.ID)
		}
	}
	return &def, nil
}

func marshalParams(params map[string]types.ParameterSpec) (string, error) {
	if params == nil {
		params = map[string]types.ParameterSpec{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", errors.Wrap(err, "marshal parameters")
	}
	return string(data), nil
}

func marshalMetadata(meta map[string]interface{}) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", errors.Wrap(err, "marshal metadata")
	}
	return string(data), nil
}

// insertDefinition writes a new definition row plus its initial version
// snapshot in one transaction.
func (s *Store) insertDefinition(ctx context.Context, def *types.CommandDefinition, snapshot *types.CommandVersion) error {
	paramsJSON, err := marshalParams(def.Parameters)
	if err != nil {
		return err
	}
	metaJSON, err := marshalMetadata(def.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin create tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO hot_commands (
			id, owner, name, display_name, description, template_text, kind,
			domain, category, parameters, metadata, version, is_active, is_shared,
			usage_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		def.ID, def.Owner, def.Name, def.DisplayName, def.Description,
		def.TemplateText, def.Kind, def.Domain, def.Category, paramsJSON, metaJSON,
		def.Version, def.Active, def.Shared, def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert definition")
	}

	if err := insertVersionTx(ctx, tx, snapshot); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit create tx")
}

// updateDefinition applies an updated definition and its new version
// snapshot atomically. The version snapshot is written before the live row
// is swapped, so a reader never observes a version the snapshot table does
// not yet have.
func (s *Store) updateDefinition(ctx context.Context, def *types.CommandDefinition, snapshot *types.CommandVersion, expectVersion int) error {
	paramsJSON, err := marshalParams(def.Parameters)
	if err != nil {
		return err
	}
	metaJSON, err := marshalMetadata(def.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin update tx")
	}
	defer tx.Rollback()

	if snapshot != nil {
		if err := insertVersionTx(ctx, tx, snapshot); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE hot_commands SET
			display_name = ?, description = ?, template_text = ?, kind = ?,
			domain = ?, category = ?, parameters = ?, metadata = ?, version = ?,
			is_shared = ?, updated_at = ?
		WHERE id = ? AND version = ? AND is_active = 1`,
		def.DisplayName, def.Description, def.TemplateText, def.Kind,
		def.Domain, def.Category, paramsJSON, metaJSON, def.Version,
		def.Shared, def.UpdatedAt,
		def.ID, expectVersion,
	)
	if err != nil {
		return errors.Wrap(err, "update definition")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update definition rows affected")
	}
	if affected == 0 {
		// The row moved under us between read and write
		return errors.Wrapf(types.ErrVersionConflict,
			"definition %s changed concurrently (expected version %d)", def.ID, expectVersion)
	}

	return errors.Wrap(tx.Commit(), "commit update tx")
}

func insertVersionTx(ctx context.Context, tx *sql.Tx, v *types.CommandVersion) error {
	paramsJSON, err := marshalParams(v.Parameters)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO command_versions (
			id, command_id, version, template_text, parameters,
			changed_by, change_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CommandID, v.Version, v.TemplateText, paramsJSON,
		v.ChangedBy, v.ChangeReason, v.CreatedAt,
	)
	return errors.Wrap(err, "insert version snapshot")
}

// getActive fetches the live definition for (owner, name).
func (s *Store) getActive(ctx context.Context, owner, name string) (*types.CommandDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+definitionColumns+` FROM hot_commands WHERE owner = ? AND name = ? AND is_active = 1`,
		owner, name)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(types.ErrCommandNotFound, "%s/%s", owner, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get definition %s/%s", owner, name)
	}
	return def, nil
}

// activeExists reports whether an active definition occupies (owner, name).
func (s *Store) activeExists(ctx context.Context, owner, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM hot_commands WHERE owner = ? AND name = ? AND is_active = 1)`,
		owner, name).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check existence of %s/%s", owner, name)
	}
	return exists, nil
}

// softDelete marks the active definition inactive; the row stays behind for
// audit. Returns the deactivated definition's id.
func (s *Store) softDelete(ctx context.Context, owner, name string) (string, error) {
	def, err := s.getActive(ctx, owner, name)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE hot_commands SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), def.ID)
	if err != nil {
		return "", errors.Wrapf(err, "soft delete %s/%s", owner, name)
	}
	return def.ID, nil
}

// purge removes a soft-deleted definition and its version history for good,
// freeing the (owner, name) slot. Active definitions cannot be purged.
func (s *Store) purge(ctx context.Context, owner, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM hot_commands WHERE owner = ? AND name = ? AND is_active = 0`,
		owner, name)
	if err != nil {
		return errors.Wrapf(err, "purge %s/%s", owner, name)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "purge rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(types.ErrCommandNotFound, "no soft-deleted definition %s/%s", owner, name)
	}
	return nil
}

// list fetches definitions matching the filter for this owner.
func (s *Store) list(ctx context.Context, owner string, filter types.ListFilter) ([]*types.CommandDefinition, error) {
	qb := newQueryBuilder(owner, filter)
	query, args := qb.build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list definitions")
	}
	defer rows.Close()

	var defs []*types.CommandDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan definition")
		}
		defs = append(defs, def)
	}
	return defs, errors.Wrap(rows.Err(), "iterate definitions")
}

// getVersion retrieves one immutable snapshot.
func (s *Store) getVersion(ctx context.Context, commandID string, version int) (*types.CommandVersion, error) {
	var v types.CommandVersion
	var paramsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, command_id, version, template_text, parameters, changed_by, change_reason, created_at
		FROM command_versions WHERE command_id = ? AND version = ?`,
		commandID, version).Scan(
		&v.ID, &v.CommandID, &v.Version, &v.TemplateText, &paramsJSON,
		&v.ChangedBy, &v.ChangeReason, &v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(types.ErrCommandNotFound, "version %d of %s", version, commandID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get version %d of %s", version, commandID)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &v.Parameters); err != nil {
		return nil, errors.Wrapf(err, "unmarshal version parameters for %s", v.ID)
	}
	return &v, nil
}

// listVersions returns all snapshots for a command, newest first.
func (s *Store) listVersions(ctx context.Context, commandID string) ([]*types.CommandVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command_id, version, template_text, parameters, changed_by, change_reason, created_at
		FROM command_versions WHERE command_id = ? ORDER BY version DESC`,
		commandID)
	if err != nil {
		return nil, errors.Wrapf(err, "list versions of %s", commandID)
	}
	defer rows.Close()

	var versions []*types.CommandVersion
	for rows.Next() {
		var v types.CommandVersion
		var paramsJSON string
		if err := rows.Scan(&v.ID, &v.CommandID, &v.Version, &v.TemplateText, &paramsJSON,
			&v.ChangedBy, &v.ChangeReason, &v.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan version")
		}
		if err := json.Unmarshal([]byte(paramsJSON), &v.Parameters); err != nil {
			return nil, errors.Wrapf(err, "unmarshal version parameters for %s", v.ID)
		}
		versions = append(versions, &v)
	}
	return versions, errors.Wrap(rows.Err(), "iterate versions")
}
