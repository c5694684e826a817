// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/reconcile"
)

func attachedPage(t *testing.T, api *fakeAPI, ic InstallationContext) (*SettingsPage, *fakeHost) {
	t.Helper()
	host := &fakeHost{current: ic}
	page := NewSettingsPage(api)
	if err := page.Attach(context.Background(), host); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return page, host
}

func TestSettingsPage_AttachLoadsImmediately(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page, host := attachedPage(t, api, InstallationContext{ObjectID: "42"})

	state := page.Snapshot()
	if state.Region != RegionContent {
		t.Fatalf("region = %v, want content", state.Region)
	}
	if !state.Bound || state.InstallationID != "42" {
		t.Errorf("save not bound to 42: %+v", state)
	}
	if state.SaveButton != (SaveButton{Enabled: true, Label: SaveLabel}) {
		t.Errorf("save button = %+v", state.SaveButton)
	}

	want := []bool{false, true, false}
	if len(state.Selections) != len(want) {
		t.Fatalf("selections = %+v", state.Selections)
	}
	for i, checked := range want {
		if state.Selections[i].Checked != checked {
			t.Errorf("selection %d checked = %v, want %v", i, state.Selections[i].Checked, checked)
		}
	}
	if len(host.emitted()) != 0 {
		t.Errorf("unexpected notifications: %+v", host.emitted())
	}
}

func TestSettingsPage_RejectedFetchShowsError(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.marketplacesErr = errNetwork
	page, host := attachedPage(t, api, InstallationContext{})

	state := page.Snapshot()
	if state.Region != RegionError {
		t.Errorf("region = %v, want error (loader hidden, app hidden)", state.Region)
	}
	if state.Bound {
		t.Error("save bound after a failed load")
	}
	if state.ErrorMessage == "" {
		t.Error("error message not recorded")
	}

	events := host.emitted()
	if len(events) != 1 || events[0].event != EventSnackbarError {
		t.Errorf("notifications = %+v", events)
	}
}

func TestSettingsPage_NewContextReplacesOld(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	started := make(chan struct{})
	api.onMarketplaces = func(ctx context.Context, installationID string) error {
		if installationID != "slow" {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	host := &fakeHost{}
	page := NewSettingsPage(api)
	page.mu.Lock()
	page.host = host
	page.mu.Unlock()

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- page.OnContextChange(context.Background(), InstallationContext{ObjectID: "slow"})
	}()
	<-started

	if err := page.OnContextChange(context.Background(), InstallationContext{ObjectID: "fast"}); err != nil {
		t.Fatalf("fast run: %v", err)
	}

	select {
	case err := <-slowDone:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("slow run = %v, want ErrSuperseded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run was not cancelled")
	}

	state := page.Snapshot()
	if state.Region != RegionContent || state.InstallationID != "fast" {
		t.Errorf("state = region %v installation %q", state.Region, state.InstallationID)
	}
	if len(host.emitted()) != 0 {
		t.Errorf("superseded run notified: %+v", host.emitted())
	}
}

func TestSettingsPage_ContextChangeThroughHost(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page, host := attachedPage(t, api, InstallationContext{ObjectID: "1"})

	api.mu.Lock()
	api.settings = models.Settings{Marketplaces: []models.Marketplace{{ID: "a"}, {ID: "c"}}}
	api.mu.Unlock()

	host.publish(context.Background(), InstallationContext{ObjectID: "2"})

	state := page.Snapshot()
	if state.InstallationID != "2" {
		t.Errorf("installation = %q", state.InstallationID)
	}
	ids := state.CheckedIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("checked = %v", ids)
	}
}

func TestSettingsPage_Save(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page, host := attachedPage(t, api, InstallationContext{ObjectID: "42"})
	page.SetChecked([]string{"c", "a"})

	if err := page.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	saved := api.savedCalls()
	if len(saved) != 1 || saved[0].installationID != "42" {
		t.Fatalf("saved = %+v", saved)
	}
	got := saved[0].settings.IDs()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("payload ids = %v, want [a c]", got)
	}

	events := host.emitted()
	if len(events) != 1 || events[0].event != EventSnackbarMessage || events[0].payload != SettingsSavedMessage {
		t.Errorf("notifications = %+v", events)
	}
	if btn := page.Snapshot().SaveButton; btn != (SaveButton{Enabled: true, Label: SaveLabel}) {
		t.Errorf("button = %+v", btn)
	}
}

func TestSettingsPage_SaveFailureKeepsSelections(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page, host := attachedPage(t, api, InstallationContext{ObjectID: "42"})
	page.SetChecked([]string{"a"})
	api.mu.Lock()
	api.updateErr = errNetwork
	api.mu.Unlock()

	if err := page.Save(context.Background()); !errors.Is(err, errNetwork) {
		t.Fatalf("Save = %v", err)
	}

	state := page.Snapshot()
	if ids := state.CheckedIDs(); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("selections rolled back: %v", ids)
	}
	if state.Region != RegionContent {
		t.Errorf("save failure changed region to %v", state.Region)
	}
	if state.SaveButton != (SaveButton{Enabled: true, Label: SaveLabel}) {
		t.Errorf("button = %+v", state.SaveButton)
	}
	events := host.emitted()
	if len(events) != 1 || events[0].event != EventSnackbarError {
		t.Errorf("notifications = %+v", events)
	}
}

func TestSettingsPage_SaveUnknownMarketplace(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page, _ := attachedPage(t, api, InstallationContext{})
	page.SetChecked([]string{"b"})

	api.mu.Lock()
	api.marketplaces = []models.Marketplace{{ID: "a"}}
	api.mu.Unlock()

	err := page.Save(context.Background())
	if !errors.Is(err, reconcile.ErrUnknownMarketplace) {
		t.Fatalf("Save = %v, want ErrUnknownMarketplace", err)
	}
	if len(api.savedCalls()) != 0 {
		t.Error("partial payload was posted")
	}
}

func TestSettingsPage_SaveButtonWhileSaving(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page, _ := attachedPage(t, api, InstallationContext{ObjectID: "42"})

	inUpdate := make(chan struct{})
	release := make(chan struct{})
	api.mu.Lock()
	api.onUpdate = func(context.Context) error {
		close(inUpdate)
		<-release
		return nil
	}
	api.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = page.Save(context.Background())
	}()
	<-inUpdate

	if btn := page.Snapshot().SaveButton; btn != (SaveButton{Enabled: false, Label: SavingLabel}) {
		t.Errorf("button during save = %+v", btn)
	}
	if err := page.Save(context.Background()); !errors.Is(err, ErrSaveInProgress) {
		t.Errorf("concurrent Save = %v", err)
	}

	close(release)
	wg.Wait()

	if btn := page.Snapshot().SaveButton; btn != (SaveButton{Enabled: true, Label: SaveLabel}) {
		t.Errorf("button after save = %+v", btn)
	}
}

func TestSettingsPage_NoHost(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	page := NewSettingsPage(api)

	if err := page.Attach(context.Background(), nil); err != nil {
		t.Errorf("Attach(nil) = %v", err)
	}
	if err := page.OnContextChange(context.Background(), InstallationContext{ObjectID: "1"}); err != nil {
		t.Errorf("OnContextChange = %v", err)
	}
	if err := page.Save(context.Background()); err != nil {
		t.Errorf("Save = %v", err)
	}
	if got := page.Snapshot().Region; got != RegionHidden {
		t.Errorf("region = %v, want hidden", got)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.paths) != 0 {
		t.Errorf("API called without host: %v", api.paths)
	}
}

func TestSettingsPage_SaveBeforeLoad(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.marketplacesErr = errNetwork
	page, _ := attachedPage(t, api, InstallationContext{})

	if err := page.Save(context.Background()); !errors.Is(err, ErrNotBound) {
		t.Errorf("Save = %v, want ErrNotBound", err)
	}
}

func TestSettingsPage_WatchFailure(t *testing.T) {
	t.Parallel()

	host := &fakeHost{watchErr: errors.New("host gone")}
	page := NewSettingsPage(newFakeAPI())

	if err := page.Attach(context.Background(), host); err == nil {
		t.Fatal("expected Attach error")
	}
	if got := page.Snapshot().Region; got != RegionError {
		t.Errorf("region = %v", got)
	}
	if events := host.emitted(); len(events) != 1 || events[0].event != EventSnackbarError {
		t.Errorf("notifications = %+v", events)
	}
}
