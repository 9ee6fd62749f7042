// Package session orchestrates the lifecycle of a single loaded
// project: create/load/compile/loadMergeFiles/unload, plus the
// bookkeeping (watchers, recovery descriptor) that keeps a process's
// one active project consistent with what is on disk.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/tibia-tools/assets/dat"
	"github.com/tibia-tools/assets/host"
	"github.com/tibia-tools/assets/spritestore"
	"github.com/tibia-tools/assets/thing"
)

// Options configures a Session.
type Options struct {
	// RecoveryFileName names the JSON recovery descriptor written next
	// to the DAT file on load. Defaults to ".recovery.json".
	RecoveryFileName string

	// A custom logger.
	Logger log.Logger
}

// Session is a process-wide holder of the currently open project. It is
// not a global: callers construct one with New and are expected to keep
// a single instance alive for the process's lifetime, matching the
// "singleton per process" contract the project state implies.
type Session struct {
	mu    sync.Mutex
	host  host.Host
	opts  *Options
	state State

	logger *log.Helper
}

// New instantiates a Session bound to a Host, with optional tuning.
func New(h host.Host, opts *Options) *Session {
	s := &Session{host: h, state: factoryState()}
	if opts != nil {
		s.opts = opts
	} else {
		s.opts = &Options{}
	}
	if s.opts.RecoveryFileName == "" {
		s.opts.RecoveryFileName = ".recovery.json"
	}

	var logger log.Logger
	if s.opts.Logger == nil {
		logger = log.NewStdLogger(os.Stdout)
		s.logger = log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelInfo)))
	} else {
		s.logger = log.NewHelper(s.opts.Logger)
	}
	return s
}

// State returns a copy of the current project state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attach records the parsed thing table and sprite store against the
// current project, after the caller has decoded the buffers Load
// returned with the dat/spritestore packages. No-op when no project is
// loaded.
func (s *Session) Attach(things *dat.Table, sprites *spritestore.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Loaded {
		return
	}
	s.state.Things = things
	s.state.Sprites = sprites
}

// CreateParams configures a brand new, unsaved project.
type CreateParams struct {
	ClientVersion int
	Transparency  bool
	DisplayName   string
}

// Create discards whatever project is loaded and starts a fresh,
// temporary one whose features are derived from the client version.
func (s *Session) Create(ctx context.Context, p CreateParams) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unloadLocked()

	features := thing.ApplyVersionDefaults(thing.Features{Transparency: p.Transparency}, p.ClientVersion)
	s.state = State{
		Loaded:        true,
		ClientVersion: p.ClientVersion,
		Features:      features,
		IsTemporary:   true,
		Changed:       true,
		DisplayName:   p.DisplayName,
	}
	return s.state, nil
}

// LoadParams names the files a project loads from.
type LoadParams struct {
	DatFilePath     string
	SprFilePath     string
	ServerItemsPath string
	ClientVersion   int
	Extended        bool
	DisplayName     string
}

// LoadResult carries the raw bytes Load read through the host, left
// unparsed for the caller to feed to the dat/spr codecs.
type LoadResult struct {
	DatBytes []byte
	SprBytes []byte

	// OtfiText is nil if no sibling .otfi file was found.
	OtfiText *string
	// OtbBytes and XmlText are nil if no items.otb/items.xml pair was
	// found under ServerItemsPath.
	OtbBytes []byte
	XmlText  *string
}

// Load unloads any current project, verifies the DAT/SPR exist, reads
// them, opportunistically reads sibling metadata, installs file
// watches, and persists a recovery descriptor. Parsing the returned
// buffers into a Table/Store is the caller's responsibility.
func (s *Session) Load(ctx context.Context, p LoadParams) (State, LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unloadLocked()

	if !s.host.Exists(p.DatFilePath) {
		s.logger.Errorf("session: dat not found: %s", p.DatFilePath)
		return State{}, LoadResult{}, ErrDatNotFound
	}
	if !s.host.Exists(p.SprFilePath) {
		s.logger.Errorf("session: spr not found: %s", p.SprFilePath)
		return State{}, LoadResult{}, ErrSprNotFound
	}

	datBytes, err := s.host.ReadBytes(ctx, p.DatFilePath)
	if err != nil {
		s.logger.Errorf("session: load dat: %v", err)
		return State{}, LoadResult{}, fmt.Errorf("session: load dat: %w", err)
	}
	sprBytes, err := s.host.ReadBytes(ctx, p.SprFilePath)
	if err != nil {
		s.logger.Errorf("session: load spr: %v", err)
		return State{}, LoadResult{}, fmt.Errorf("session: load spr: %w", err)
	}

	result := LoadResult{DatBytes: datBytes, SprBytes: sprBytes}

	otfiPath := otfiPathFor(p.DatFilePath)
	if s.host.Exists(otfiPath) {
		if text, err := s.host.ReadText(ctx, otfiPath, host.UTF8); err == nil {
			result.OtfiText = &text
		} else {
			s.logger.Warnf("session: reading otfi %s: %v", otfiPath, err)
		}
	}

	if p.ServerItemsPath != "" {
		if otb, ok := s.host.FindInDir(p.ServerItemsPath, "items.otb"); ok {
			if b, err := s.host.ReadBytes(ctx, otb); err == nil {
				result.OtbBytes = b
			} else {
				s.logger.Warnf("session: reading items.otb: %v", err)
			}
		}
		if xmlPath, ok := s.host.FindInDir(p.ServerItemsPath, "items.xml"); ok {
			if text, err := s.host.ReadText(ctx, xmlPath, host.Latin1); err == nil {
				result.XmlText = &text
			} else {
				s.logger.Warnf("session: reading items.xml: %v", err)
			}
		}
	}

	features := thing.ApplyVersionDefaults(thing.Features{}, p.ClientVersion)
	s.state = State{
		Loaded:          true,
		DatFilePath:     p.DatFilePath,
		SprFilePath:     p.SprFilePath,
		ServerItemsPath: p.ServerItemsPath,
		OtfiPath:        otfiPath,
		ClientVersion:   p.ClientVersion,
		Features:        features,
		DisplayName:     p.DisplayName,
	}

	s.installWatchesLocked()
	s.persistRecoveryLocked(ctx)

	return s.state, result, nil
}

// CompileParams carries the already-encoded bytes to write, plus the
// destination paths (which may differ from the currently loaded ones
// for a "save as").
type CompileParams struct {
	DatFilePath     string
	SprFilePath     string
	DatBytes        []byte
	SprBytes        []byte
	OtfiText        *string
	ServerItemsPath string
	OtbBytes        []byte
	XmlText         *string
}

// Compile backs up and overwrites the project's files, then marks the
// project persisted.
func (s *Session) Compile(ctx context.Context, p CompileParams) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Loaded {
		return State{}, ErrNoProjectLoaded
	}

	backupTargets := []string{p.DatFilePath, p.SprFilePath}
	if p.OtfiText != nil {
		backupTargets = append(backupTargets, otfiPathFor(p.DatFilePath))
	}
	if p.ServerItemsPath != "" {
		if otb, ok := s.host.FindInDir(p.ServerItemsPath, "items.otb"); ok {
			backupTargets = append(backupTargets, otb)
		}
		if xmlPath, ok := s.host.FindInDir(p.ServerItemsPath, "items.xml"); ok {
			backupTargets = append(backupTargets, xmlPath)
		}
	}
	if err := s.host.Backup(ctx, backupTargets); err != nil {
		s.logger.Warnf("session: backup before compile: %v", err)
	}

	if err := s.host.WriteBytes(ctx, p.DatFilePath, p.DatBytes); err != nil {
		s.logger.Errorf("session: write dat: %v", err)
		return State{}, fmt.Errorf("session: write dat: %w", err)
	}
	if err := s.host.WriteBytes(ctx, p.SprFilePath, p.SprBytes); err != nil {
		s.logger.Errorf("session: write spr: %v", err)
		return State{}, fmt.Errorf("session: write spr: %w", err)
	}
	if p.OtfiText != nil {
		if err := s.host.WriteText(ctx, otfiPathFor(p.DatFilePath), *p.OtfiText, host.UTF8); err != nil {
			s.logger.Warnf("session: write otfi: %v", err)
		}
	}
	if p.ServerItemsPath != "" {
		if p.OtbBytes != nil {
			if err := s.host.WriteBytes(ctx, filepath.Join(p.ServerItemsPath, "items.otb"), p.OtbBytes); err != nil {
				s.logger.Warnf("session: write items.otb: %v", err)
			}
		}
		if p.XmlText != nil {
			if err := s.host.WriteText(ctx, filepath.Join(p.ServerItemsPath, "items.xml"), *p.XmlText, host.Latin1); err != nil {
				s.logger.Warnf("session: write items.xml: %v", err)
			}
		}
	}

	s.stopWatchesLocked()
	s.state.DatFilePath = p.DatFilePath
	s.state.SprFilePath = p.SprFilePath
	s.state.ServerItemsPath = p.ServerItemsPath
	s.state.OtfiPath = otfiPathFor(p.DatFilePath)
	s.state.IsTemporary = false
	s.state.Changed = false
	s.installWatchesLocked()
	s.persistRecoveryLocked(ctx)

	return s.state, nil
}

// MergeParams names a second DAT+SPR pair to read for a merge.
type MergeParams struct {
	DatFilePath string
	SprFilePath string
}

// MergeResult carries the second pair's raw bytes. The session does not
// touch its own tables: applying the merge is the caller's job.
type MergeResult struct {
	DatBytes []byte
	SprBytes []byte
}

// LoadMergeFiles reads a second DAT+SPR pair for merging into the
// currently loaded project. Requires a project to already be loaded.
func (s *Session) LoadMergeFiles(ctx context.Context, p MergeParams) (MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Loaded {
		return MergeResult{}, ErrNoProjectLoaded
	}

	if !s.host.Exists(p.DatFilePath) {
		s.logger.Errorf("session: dat not found: %s", p.DatFilePath)
		return MergeResult{}, ErrDatNotFound
	}
	if !s.host.Exists(p.SprFilePath) {
		s.logger.Errorf("session: spr not found: %s", p.SprFilePath)
		return MergeResult{}, ErrSprNotFound
	}

	datBytes, err := s.host.ReadBytes(ctx, p.DatFilePath)
	if err != nil {
		s.logger.Errorf("session: load merge dat: %v", err)
		return MergeResult{}, fmt.Errorf("session: load merge dat: %w", err)
	}
	sprBytes, err := s.host.ReadBytes(ctx, p.SprFilePath)
	if err != nil {
		s.logger.Errorf("session: load merge spr: %v", err)
		return MergeResult{}, fmt.Errorf("session: load merge spr: %w", err)
	}

	return MergeResult{DatBytes: datBytes, SprBytes: sprBytes}, nil
}

// Unload stops watchers, deletes the recovery descriptor, and resets
// state to factory defaults. Idempotent.
func (s *Session) Unload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloadLockedWithContext(ctx)
}

func (s *Session) unloadLocked() {
	s.unloadLockedWithContext(context.Background())
}

func (s *Session) unloadLockedWithContext(ctx context.Context) {
	if !s.state.Loaded {
		s.state = factoryState()
		return
	}
	s.stopWatchesLocked()
	if s.state.DatFilePath != "" {
		recoveryPath := s.recoveryPathFor(s.state.DatFilePath)
		if err := os.Remove(recoveryPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warnf("session: removing recovery descriptor: %v", err)
		}
	}
	s.state = factoryState()
}

// MarkChanged records that the project has unsaved edits. No-op when
// no project is loaded.
func (s *Session) MarkChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Loaded {
		return
	}
	s.state.Changed = true
}

// MarkSaved clears the changed flag. No-op when no project is loaded.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Loaded {
		return
	}
	s.state.Changed = false
}

// SetServerItemsPath updates the server-items directory. No-op when no
// project is loaded.
func (s *Session) SetServerItemsPath(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Loaded {
		return
	}
	s.state.ServerItemsPath = p
}

// UpdateFeatures merges partial feature flags into the current state.
// No-op when no project is loaded.
func (s *Session) UpdateFeatures(partial thing.Features) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Loaded {
		return
	}
	if partial.Extended {
		s.state.Features.Extended = true
	}
	if partial.ImprovedAnimations {
		s.state.Features.ImprovedAnimations = true
	}
	if partial.FrameGroups {
		s.state.Features.FrameGroups = true
	}
	if partial.Transparency {
		s.state.Features.Transparency = true
	}
}

// DiscoverClientFiles lists dir through the host and returns the first
// .dat, .spr, .otfi it finds in the sorted order List returns.
func (s *Session) DiscoverClientFiles(dir string) (datPath, sprPath, otfiPath string, err error) {
	paths, err := s.host.List(dir, nil)
	if err != nil {
		return "", "", "", fmt.Errorf("session: discover client files: %w", err)
	}
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".dat":
			if datPath == "" {
				datPath = p
			}
		case ".spr":
			if sprPath == "" {
				sprPath = p
			}
		case ".otfi":
			if otfiPath == "" {
				otfiPath = p
			}
		}
	}
	return datPath, sprPath, otfiPath, nil
}

// DiscoverServerItemFiles performs a case-insensitive lookup for
// items.otb and items.xml under dir.
func (s *Session) DiscoverServerItemFiles(dir string) (otbPath, xmlPath string) {
	otb, _ := s.host.FindInDir(dir, "items.otb")
	xml, _ := s.host.FindInDir(dir, "items.xml")
	return otb, xml
}

func otfiPathFor(datPath string) string {
	ext := filepath.Ext(datPath)
	return strings.TrimSuffix(datPath, ext) + ".otfi"
}

func (s *Session) recoveryPathFor(datPath string) string {
	return filepath.Join(filepath.Dir(datPath), s.opts.RecoveryFileName)
}

func (s *Session) installWatchesLocked() {
	if s.state.DatFilePath != "" {
		if err := s.host.Watch(s.state.DatFilePath, s.onExternalChange); err != nil {
			s.logger.Warnf("session: watch dat: %v", err)
		}
	}
	if s.state.SprFilePath != "" {
		if err := s.host.Watch(s.state.SprFilePath, s.onExternalChange); err != nil {
			s.logger.Warnf("session: watch spr: %v", err)
		}
	}
}

func (s *Session) stopWatchesLocked() {
	if s.state.DatFilePath != "" {
		s.host.Unwatch(s.state.DatFilePath)
	}
	if s.state.SprFilePath != "" {
		s.host.Unwatch(s.state.SprFilePath)
	}
}

func (s *Session) onExternalChange(path string) {
	s.host.Log(host.LogWarning, fmt.Sprintf("session: external modification detected: %s", path))
}

func (s *Session) persistRecoveryLocked(ctx context.Context) {
	desc := newRecoveryDescriptor(s.state)
	data, err := desc.marshal()
	if err != nil {
		s.logger.Warnf("session: marshalling recovery descriptor: %v", err)
		return
	}
	path := s.recoveryPathFor(s.state.DatFilePath)
	if err := s.host.WriteBytes(ctx, path, data); err != nil {
		s.logger.Warnf("session: writing recovery descriptor: %v", err)
	}
}
