// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marketpanel/internal/client"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/metrics"
	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/reconcile"
)

// SettingsSavedMessage is the notification sent after a successful save.
const SettingsSavedMessage = "Settings saved"

var (
	// ErrSuperseded is returned by a context change run that a newer one replaced.
	ErrSuperseded = errors.New("superseded by a newer context change")

	// ErrNotBound is returned by Save before any context has loaded.
	ErrNotBound = errors.New("save is not bound to an installation")

	// ErrSaveInProgress is returned by Save while another save runs.
	ErrSaveInProgress = errors.New("save already in progress")
)

// SettingsPage lets the user pick the active marketplaces of an installation.
type SettingsPage struct {
	api client.API

	mu         sync.Mutex
	host       Host
	state      UIState
	generation uint64
	cancel     context.CancelFunc
	saving     bool
}

// NewSettingsPage creates a settings page without a host. Call Attach.
func NewSettingsPage(api client.API) *SettingsPage {
	return &SettingsPage{api: api, state: newUIState()}
}

// Attach binds the page to host and subscribes to every context change,
// delivering the current one immediately. A nil host makes this a no-op.
func (p *SettingsPage) Attach(ctx context.Context, host Host) error {
	if host == nil {
		return nil
	}

	p.mu.Lock()
	p.host = host
	p.mu.Unlock()

	err := host.Watch("*", func(hctx context.Context, ic InstallationContext) {
		_ = p.OnContextChange(hctx, ic)
	}, WatchOptions{Immediate: true})
	if err != nil {
		err = fmt.Errorf("watch host context: %w", err)
		p.mu.Lock()
		p.state.Region = RegionError
		p.state.ErrorMessage = err.Error()
		p.mu.Unlock()
		notifyError(host, err)
		logging.Ctx(ctx).Error().Err(err).Msg("Settings page could not subscribe to the host")
		return err
	}
	return nil
}

// OnContextChange loads the marketplaces and the settings of ic and shows
// them as checkboxes. A newer call cancels this one; the cancelled run
// returns ErrSuperseded and leaves the state alone.
func (p *SettingsPage) OnContextChange(ctx context.Context, ic InstallationContext) error {
	p.mu.Lock()
	host := p.host
	if host == nil {
		p.mu.Unlock()
		return nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	current := func() bool { return p.generation == gen }
	loader := startLoading(&p.mu, &p.state, current)
	defer loader.Release()

	log := logging.Ctx(logging.ContextWithInstallationID(ctx, ic.ObjectID))

	var (
		all      []models.Marketplace
		settings *models.Settings
	)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		var err error
		all, err = p.api.GetMarketplaces(gctx, ic.ObjectID)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = p.api.GetSettings(gctx, ic.ObjectID)
		return err
	})
	err := g.Wait()

	if !p.isCurrent(gen) {
		metrics.RecordPanelFlow("settings", "superseded")
		return ErrSuperseded
	}

	if err != nil {
		if !loader.Fail(err.Error()) {
			metrics.RecordPanelFlow("settings", "superseded")
			return ErrSuperseded
		}
		log.Warn().Err(err).Msg("Settings page failed to load")
		notifyError(host, err)
		metrics.RecordPanelFlow("settings", "error")
		return err
	}

	selections := reconcile.ProcessMarketplaces(all, settings.Marketplaces)
	applied := loader.Commit(RegionContent, func(s *UIState) {
		s.Selections = selections
		s.ReadOnly = false
		s.InstallationID = ic.ObjectID
		s.Bound = true
		if !p.saving {
			s.SaveButton = SaveButton{Enabled: true, Label: SaveLabel}
		}
	})
	if !applied {
		metrics.RecordPanelFlow("settings", "superseded")
		return ErrSuperseded
	}

	log.Debug().Int("marketplaces", len(selections)).Msg("Settings page loaded")
	metrics.RecordPanelFlow("settings", "content")
	return nil
}

// SetChecked replaces the checked state of every selection: ids in checked
// become checked, all others unchecked. Unknown ids are ignored.
func (p *SettingsPage) SetChecked(checked []string) {
	set := make(map[string]struct{}, len(checked))
	for _, id := range checked {
		set[id] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.ReadOnly {
		return
	}
	for i := range p.state.Selections {
		_, ok := set[p.state.Selections[i].ID]
		p.state.Selections[i].Checked = ok
	}
}

// Save posts the checked marketplaces for the bound installation.
//
// The outcome is reported through the host. On failure the selections stay
// exactly as they are. The save button is disabled with the "Saving..."
// label while the save runs and re-enabled afterwards.
func (p *SettingsPage) Save(ctx context.Context) error {
	p.mu.Lock()
	host := p.host
	switch {
	case host == nil:
		p.mu.Unlock()
		return nil
	case !p.state.Bound:
		p.mu.Unlock()
		return ErrNotBound
	case p.saving:
		p.mu.Unlock()
		return ErrSaveInProgress
	}
	p.saving = true
	p.state.SaveButton = SaveButton{Enabled: false, Label: SavingLabel}
	installationID := p.state.InstallationID
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.saving = false
		p.state.SaveButton = SaveButton{Enabled: true, Label: SaveLabel}
		p.mu.Unlock()
	}()

	err := p.save(ctx, installationID)
	metrics.RecordSettingsSave(err)

	log := logging.Ctx(logging.ContextWithInstallationID(ctx, installationID))
	if err != nil {
		log.Warn().Err(err).Msg("Saving settings failed")
		notifyError(host, err)
		return err
	}

	log.Info().Msg("Settings saved from panel")
	notifyMessage(host, SettingsSavedMessage)
	return nil
}

func (p *SettingsPage) save(ctx context.Context, installationID string) error {
	all, err := p.api.GetMarketplaces(ctx, installationID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	checkboxes := models.CheckboxesFromSelections(p.state.Selections)
	p.mu.Unlock()

	selected, err := reconcile.ProcessSelectedMarketplaces(all, reconcile.ProcessCheckboxes(checkboxes))
	if err != nil {
		return err
	}

	_, err = p.api.UpdateSettings(ctx, &models.Settings{Marketplaces: selected}, installationID)
	return err
}

// Snapshot returns a deep copy of the page state.
func (p *SettingsPage) Snapshot() UIState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// Close cancels a context change in flight.
func (p *SettingsPage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
}

func (p *SettingsPage) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == gen
}
