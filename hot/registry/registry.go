// Package registry is the authoritative store of command definitions. It
// owns uniqueness and versioning: updates snapshot-then-swap so concurrent
// readers always see a fully-formed definition, never a partial edit.
package registry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/parser"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	"github.com/vandanapadala-pg/hotcommands/hot/validate"
)

// reservedNames are built-in command words a definition may not shadow.
var reservedNames = map[string]struct{}{
	"help": {}, "list": {}, "run": {}, "add": {}, "edit": {}, "rm": {},
	"history": {}, "config": {}, "version": {}, "spaces": {}, "db": {},
}

// IsReservedName reports whether name collides with a built-in command.
func IsReservedName(name string) bool {
	_, reserved := reservedNames[name]
	return reserved
}

// Invalidator receives synchronous invalidation callbacks after every
// successful mutation, before the mutation is considered complete. The
// invocation cache implements this.
type Invalidator interface {
	Invalidate(owner, name string)
}

// Registry exposes definition lifecycle operations scoped to an owner.
type Registry struct {
	store       *Store
	invalidator Invalidator
	logger      *zap.SugaredLogger

	// Per-(owner,name) locks serialize concurrent edits of the same
	// definition. Reads never take these.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Registry. invalidator and logger may be nil.
func New(db *sql.DB, invalidator Invalidator, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		store:       NewStore(db),
		invalidator: invalidator,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (r *Registry) keyLock(owner, name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := owner + "\x00" + name
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

func (r *Registry) invalidate(owner, name string) {
	if r.invalidator != nil {
		r.invalidator.Invalidate(owner, name)
	}
}

// authorizeMutation allows owners (and admins) to mutate a definition.
func authorizeMutation(sctx types.SecurityContext, owner string) error {
	if sctx.UserID == owner {
		return nil
	}
	for _, role := range sctx.Roles {
		if role == "admin" {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrForbidden, "caller %q cannot modify commands of %q", sctx.UserID, owner)
}

// Create registers a new definition. The template is parsed and its
// placeholder specs merged with any explicitly declared parameters; the
// result must form a consistent set. Fails with a duplicate-name error when
// (owner, name) already denotes an active definition, and with a
// reserved-name error for built-in command words.
func (r *Registry) Create(ctx context.Context, sctx types.SecurityContext, def *types.CommandDefinition) (*types.CommandDefinition, error) {
	if err := authorizeMutation(sctx, def.Owner); err != nil {
		return nil, err
	}
	if !types.CommandNamePattern.MatchString(def.Name) {
		return nil, errors.Wrapf(types.ErrInvalidDefinition, "invalid command name %q", def.Name)
	}
	if IsReservedName(def.Name) {
		return nil, errors.Wrapf(types.ErrReservedName, "%q is a built-in command", def.Name)
	}
	if !def.Kind.Valid() {
		return nil, errors.Wrapf(types.ErrInvalidDefinition, "unknown command kind %q", def.Kind)
	}

	params, err := resolveParameters(def.TemplateText, def.Parameters)
	if err != nil {
		return nil, err
	}

	lock := r.keyLock(def.Owner, def.Name)
	lock.Lock()
	defer lock.Unlock()

	exists, err := r.store.activeExists(ctx, def.Owner, def.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(types.ErrDuplicateName, "%s/%s already exists", def.Owner, def.Name)
	}

	now := time.Now().UTC()
	created := def.Clone()
	created.ID = uuid.NewString()
	created.Parameters = params
	created.Version = 1
	created.Active = true
	created.UsageCount = 0
	created.LastUsedAt = nil
	created.CreatedAt = now
	created.UpdatedAt = now

	snapshot := snapshotOf(created, sctx.UserID, "created")
	if err := r.store.insertDefinition(ctx, created, snapshot); err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.Infow("Command created",
			"owner", created.Owner,
			"command", created.Name,
			"kind", string(created.Kind),
			"version", created.Version,
		)
	}
	return created, nil
}

// Get returns the active definition for (owner, name). Callers other than
// the owner only see definitions marked shared.
func (r *Registry) Get(ctx context.Context, sctx types.SecurityContext, owner, name string) (*types.CommandDefinition, error) {
	def, err := r.store.getActive(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if sctx.UserID != owner && !def.Shared {
		// Present as not-found so callers cannot distinguish hidden
		// definitions from absent ones
		return nil, errors.Wrapf(types.ErrCommandNotFound, "%s/%s", owner, name)
	}
	return def, nil
}

// List returns the caller's definitions matching the filter, plus other
// owners' shared definitions when the filter asks for them.
func (r *Registry) List(ctx context.Context, sctx types.SecurityContext, filter types.ListFilter) ([]*types.CommandDefinition, error) {
	return r.store.list(ctx, sctx.UserID, filter)
}

// Update applies a patch. A new version snapshot is written and the version
// incremented before the live row is swapped; concurrent updates of the same
// definition are serialized, and a patch carrying a stale BaseVersion fails
// with a version conflict. The cache entry is invalidated synchronously
// before the call returns.
func (r *Registry) Update(ctx context.Context, sctx types.SecurityContext, owner, name string, patch types.UpdatePatch) (*types.CommandDefinition, error) {
	if err := authorizeMutation(sctx, owner); err != nil {
		return nil, err
	}

	lock := r.keyLock(owner, name)
	lock.Lock()
	defer lock.Unlock()

	current, err := r.store.getActive(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if patch.BaseVersion != 0 && patch.BaseVersion != current.Version {
		return nil, errors.Wrapf(types.ErrVersionConflict,
			"%s/%s is at version %d, update based on %d", owner, name, current.Version, patch.BaseVersion)
	}

	updated := current.Clone()
	if patch.DisplayName != nil {
		updated.DisplayName = *patch.DisplayName
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Kind != nil {
		if !patch.Kind.Valid() {
			return nil, errors.Wrapf(types.ErrInvalidDefinition, "unknown command kind %q", *patch.Kind)
		}
		updated.Kind = *patch.Kind
	}
	if patch.Domain != nil {
		updated.Domain = *patch.Domain
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.Shared != nil {
		updated.Shared = *patch.Shared
	}
	if patch.Metadata != nil {
		updated.Metadata = patch.Metadata
	}
	if patch.TemplateText != nil {
		updated.TemplateText = *patch.TemplateText
	}
	if patch.TemplateText != nil || patch.Parameters != nil {
		declared := updated.Parameters
		if patch.Parameters != nil {
			declared = patch.Parameters
		}
		params, err := resolveParameters(updated.TemplateText, declared)
		if err != nil {
			return nil, err
		}
		updated.Parameters = params
	}

	updated.Version = current.Version + 1
	updated.UpdatedAt = time.Now().UTC()

	reason := patch.ChangeReason
	if reason == "" {
		reason = "updated"
	}
	snapshot := snapshotOf(updated, sctx.UserID, reason)

	if err := r.store.updateDefinition(ctx, updated, snapshot, current.Version); err != nil {
		return nil, err
	}

	// No invocation may execute the stale template after this returns
	r.invalidate(owner, name)

	if r.logger != nil {
		r.logger.Infow("Command updated",
			"owner", owner,
			"command", name,
			"version", updated.Version,
		)
	}
	return updated, nil
}

// SoftDelete deactivates a definition. The slot stays queryable for audit
// but disappears from list/lookup; the name becomes available again for a
// fresh definition starting at version 1.
func (r *Registry) SoftDelete(ctx context.Context, sctx types.SecurityContext, owner, name string) error {
	if err := authorizeMutation(sctx, owner); err != nil {
		return err
	}

	lock := r.keyLock(owner, name)
	lock.Lock()
	defer lock.Unlock()

	if _, err := r.store.softDelete(ctx, owner, name); err != nil {
		return err
	}
	r.invalidate(owner, name)

	if r.logger != nil {
		r.logger.Infow("Command soft-deleted", "owner", owner, "command", name)
	}
	return nil
}

// Purge permanently removes a soft-deleted definition and its history.
func (r *Registry) Purge(ctx context.Context, sctx types.SecurityContext, owner, name string) error {
	if err := authorizeMutation(sctx, owner); err != nil {
		return err
	}
	return r.store.purge(ctx, owner, name)
}

// GetVersion retrieves one immutable snapshot of a definition.
func (r *Registry) GetVersion(ctx context.Context, sctx types.SecurityContext, owner, name string, version int) (*types.CommandVersion, error) {
	def, err := r.Get(ctx, sctx, owner, name)
	if err != nil {
		return nil, err
	}
	return r.store.getVersion(ctx, def.ID, version)
}

// ListVersions returns a definition's snapshots, newest first.
func (r *Registry) ListVersions(ctx context.Context, sctx types.SecurityContext, owner, name string) ([]*types.CommandVersion, error) {
	def, err := r.Get(ctx, sctx, owner, name)
	if err != nil {
		return nil, err
	}
	return r.store.listVersions(ctx, def.ID)
}

// resolveParameters merges specs parsed from the template with explicitly
// declared ones and validates the resulting set. Every placeholder must end
// up with a spec; inline annotations may not contradict declared specs.
func resolveParameters(templateText string, declared map[string]types.ParameterSpec) (map[string]types.ParameterSpec, error) {
	parsed, err := parser.Parse(templateText)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]types.ParameterSpec, len(parsed)+len(declared))
	for name, spec := range parsed {
		merged[name] = spec
	}
	for name, spec := range declared {
		if spec.Name == "" {
			spec.Name = name
		}
		if inline, ok := merged[name]; ok {
			if inline.Type != types.ParamString && spec.Type != inline.Type {
				return nil, errors.Wrapf(types.ErrInvalidDefinition,
					"parameter %q declared as %s but template annotates %s", name, spec.Type, inline.Type)
			}
			if inline.Required {
				spec.Required = true
			}
			if inline.HasDefault() && !spec.HasDefault() {
				spec.Default = inline.Default
			}
		}
		merged[name] = spec
	}

	for name, spec := range merged {
		if spec.Name == "" {
			spec.Name = name
			merged[name] = spec
		}
	}

	if err := validate.CheckSpecs(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func snapshotOf(def *types.CommandDefinition, changedBy, reason string) *types.CommandVersion {
	return &types.CommandVersion{
		ID:           uuid.NewString(),
		CommandID:    def.ID,
		Version:      def.Version,
		TemplateText: def.TemplateText,
		Parameters:   def.Parameters,
		ChangedBy:    changedBy,
		ChangeReason: reason,
		CreatedAt:    def.UpdatedAt,
	}
}
