package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"questlog/api/internal/auth"
	"questlog/api/internal/config"
	"questlog/api/internal/content"
	"questlog/api/internal/engine"
	"questlog/api/internal/export"
	"questlog/api/internal/search"
	"questlog/api/internal/store"
	"questlog/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	JTI       string
	ExpiresAt time.Time
}

// ListFilters narrows the quest list. Status filters on the display
// status the client would render, not the raw resolved status.
type ListFilters struct {
	TraderID  string
	Status    string
	Map       string
	KappaOnly bool
}

// CompanionEvent is one progress event reported by the desktop app.
type CompanionEvent struct {
	QuestID string `json:"questId"`
	Event   string `json:"event"`
}

// companionStatusMap translates companion event names to tracker
// statuses. A failed quest stays selectable, so FAILED maps back to
// available rather than to a dead end.
var companionStatusMap = map[string]engine.Status{
	"STARTED":   engine.StatusInProgress,
	"COMPLETED": engine.StatusCompleted,
	"FAILED":    engine.StatusAvailable,
}

const (
	sourceWeb       = "web"
	sourceCompanion = "companion"
)

// Game modes, persisted exactly as the store's CHECK constraint spells
// them.
const (
	gameModePVP = "PVP"
	gameModePVE = "PVE"
)

type dataStore interface {
	EnsureUserByName(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	UpdateUserSettings(context.Context, string, int, bool) error
	ListQuestProgress(context.Context, string) ([]store.QuestProgressRow, error)
	ListObjectiveProgress(context.Context, string) ([]store.ObjectiveProgressRow, error)
	UpsertQuestProgress(context.Context, store.QuestProgressRow) error
	UpsertObjectiveProgress(context.Context, store.ObjectiveProgressRow) error
	ResetProgress(context.Context, string) (int, error)
	InsertCompanionToken(context.Context, store.CompanionToken) error
	ListUserCompanionTokens(context.Context, string) ([]store.CompanionToken, error)
	CountActiveCompanionTokens(context.Context, string) (int, error)
	RevokeCompanionToken(context.Context, string, string) (bool, error)
	Ping(ctx context.Context) error
}

type Service struct {
	cfg        config.Config
	store      dataStore
	catalog    *content.Catalog
	search     *search.Service
	export     *export.Service
	companions *auth.CompanionValidator
	now        func() time.Time
}

func New(cfg config.Config, dataStore *store.PostgresStore, catalog *content.Catalog, searchSvc *search.Service, exportSvc *export.Service, companions *auth.CompanionValidator) *Service {
	return &Service{
		cfg:        cfg,
		store:      dataStore,
		catalog:    catalog,
		search:     searchSvc,
		export:     exportSvc,
		companions: companions,
		now:        time.Now,
	}
}

func (s *Service) Login(ctx context.Context, name string) (Session, error) {
	userName := strings.TrimSpace(name)
	if userName == "" {
		userName = "User"
	}

	user, err := s.store.EnsureUserByName(ctx, userName)
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(user)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// CompanionFromToken resolves a raw companion token to its device.
func (s *Service) CompanionFromToken(ctx context.Context, raw string) (auth.CompanionDevice, error) {
	return s.companions.Validate(ctx, raw)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// loadSnapshot reconstructs a user's progress snapshot from persisted
// rows. Rows referencing quests or objectives that no longer exist in
// the catalog are skipped; a content drop shrinking must not brick a
// profile.
func (s *Service) loadSnapshot(ctx context.Context, userID string) (engine.Snapshot, error) {
	snap := engine.NewSnapshot()

	questRows, err := s.store.ListQuestProgress(ctx, userID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	for _, row := range questRows {
		if _, ok := s.catalog.Graph.Quest(row.QuestID); !ok {
			continue
		}
		status := engine.Status(row.Status)
		if !status.Valid() {
			continue
		}
		snap.Quests[row.QuestID] = engine.QuestProgress{
			Status:      status,
			CompletedAt: row.CompletedAt,
		}
	}

	objectiveRows, err := s.store.ListObjectiveProgress(ctx, userID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	for _, row := range objectiveRows {
		if _, ok := s.catalog.Graph.Objective(row.ObjectiveID); !ok {
			continue
		}
		snap.Objectives[row.ObjectiveID] = engine.ObjectiveProgress{
			Completed: row.Completed,
			Current:   row.Current,
			Target:    row.Target,
		}
	}

	return snap, nil
}

// persistQuests writes the snapshot entries for the given quest ids.
// All-or-nothing semantics hold in memory; persistence is best-effort
// row by row, and the first failure aborts with the error.
func (s *Service) persistQuests(ctx context.Context, userID string, snap engine.Snapshot, questIDs []string, source string) error {
	for _, questID := range questIDs {
		qp, ok := snap.Quests[questID]
		if !ok {
			continue
		}
		row := store.QuestProgressRow{
			UserID:      userID,
			QuestID:     questID,
			Status:      string(qp.Status),
			CompletedAt: qp.CompletedAt,
			SyncSource:  source,
		}
		if err := s.store.UpsertQuestProgress(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// ListQuests returns the full quest list with per-quest display status,
// objectives, and trader info, optionally filtered.
func (s *Service) ListQuests(ctx context.Context, session Session, filters ListFilters) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	resolved := engine.ResolveAll(s.catalog.Graph, snap)

	items := make([]map[string]any, 0, len(s.catalog.Quests))
	completed := 0
	kappaCompleted := 0
	kappaTotal := 0
	for _, quest := range s.catalog.Quests {
		display := engine.DisplayStatus(resolved[quest.ID], quest, user.PlayerLevel, user.BypassLevelRequirement)

		if quest.KappaRequired {
			kappaTotal++
		}
		if resolved[quest.ID] == engine.StatusCompleted {
			completed++
			if quest.KappaRequired {
				kappaCompleted++
			}
		}

		if filters.TraderID != "" && quest.TraderID != filters.TraderID {
			continue
		}
		if filters.Status != "" && string(display) != filters.Status {
			continue
		}
		if filters.KappaOnly && !quest.KappaRequired {
			continue
		}
		if filters.Map != "" && !questOnMap(quest, filters.Map) {
			continue
		}

		items = append(items, s.questPayload(quest, display, snap))
	}

	return map[string]any{
		"quests": items,
		"totals": map[string]any{
			"quests":         len(s.catalog.Quests),
			"completed":      completed,
			"kappaTotal":     kappaTotal,
			"kappaCompleted": kappaCompleted,
		},
	}, nil
}

// ListTraders returns the catalog's traders with per-trader completion
// counts.
func (s *Service) ListTraders(ctx context.Context, session Session) (map[string]any, error) {
	snap, err := s.loadSnapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	resolved := engine.ResolveAll(s.catalog.Graph, snap)

	totals := make(map[string]int)
	completed := make(map[string]int)
	for _, quest := range s.catalog.Quests {
		totals[quest.TraderID]++
		if resolved[quest.ID] == engine.StatusCompleted {
			completed[quest.TraderID]++
		}
	}

	items := make([]map[string]any, 0, len(s.catalog.Traders))
	for _, trader := range s.catalog.Traders {
		item := map[string]any{
			"id":        trader.ID,
			"name":      trader.Name,
			"quests":    totals[trader.ID],
			"completed": completed[trader.ID],
		}
		if trader.Color != "" {
			item["color"] = trader.Color
		}
		items = append(items, item)
	}
	return map[string]any{"traders": items}, nil
}

func questOnMap(quest content.Quest, mapName string) bool {
	for _, o := range quest.Objectives {
		if strings.EqualFold(o.Map, mapName) {
			return true
		}
	}
	return false
}

func (s *Service) questPayload(quest content.Quest, display engine.Status, snap engine.Snapshot) map[string]any {
	objectives := make([]map[string]any, 0, len(quest.Objectives))
	for _, obj := range quest.Objectives {
		progress := snap.Objectives[obj.ID]
		item := map[string]any{
			"id":          obj.ID,
			"description": obj.Description,
			"completed":   progress.Completed,
		}
		if obj.Map != "" {
			item["map"] = obj.Map
		}
		if obj.Counted() {
			item["current"] = progress.Current
			item["target"] = obj.Target
		}
		objectives = append(objectives, item)
	}

	payload := map[string]any{
		"id":            quest.ID,
		"title":         quest.Title,
		"trader":        quest.TraderID,
		"status":        string(display),
		"levelRequired": quest.LevelRequired,
		"kappaRequired": quest.KappaRequired,
		"objectives":    objectives,
	}
	if trader, ok := s.catalog.Trader(quest.TraderID); ok {
		payload["traderName"] = trader.Name
	}
	if quest.WikiLink != "" {
		payload["wikiLink"] = quest.WikiLink
	}
	if qp, ok := snap.Quests[quest.ID]; ok && qp.CompletedAt != nil {
		payload["completedAt"] = qp.CompletedAt
	}
	return payload
}

// UpdateQuestStatus applies one user-initiated transition and persists
// the quest plus every quest the cascade touched.
func (s *Service) UpdateQuestStatus(ctx context.Context, session Session, questID, newStatus, source string) (map[string]any, error) {
	status := engine.Status(newStatus)
	if !status.Valid() {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status "+newStatus, nil)
	}
	if source == "" {
		source = sourceWeb
	}

	snap, err := s.loadSnapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	result, err := engine.SetQuestStatus(s.catalog.Graph, snap, questID, status, s.now())
	if err != nil {
		return nil, mapEngineError(err)
	}

	touched := append([]string{questID}, result.Unlocked...)
	touched = append(touched, result.Locked...)
	if err := s.persistQuests(ctx, session.UserID, result.Snapshot, touched, source); err != nil {
		return nil, err
	}

	return map[string]any{
		"quest": map[string]any{
			"id":     questID,
			"status": newStatus,
		},
		"unlocked": result.Unlocked,
		"locked":   result.Locked,
	}, nil
}

// TickObjective advances or rewinds one objective and persists it. Quest
// status is untouched; objectives never gate completion.
func (s *Service) TickObjective(ctx context.Context, session Session, objectiveID string, delta int) (map[string]any, error) {
	snap, err := s.loadSnapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	next, err := engine.TickObjective(s.catalog.Graph, snap, objectiveID, delta)
	if err != nil {
		return nil, mapEngineError(err)
	}

	progress := next.Objectives[objectiveID]
	row := store.ObjectiveProgressRow{
		UserID:      session.UserID,
		ObjectiveID: objectiveID,
		Completed:   progress.Completed,
		Current:     progress.Current,
		Target:      progress.Target,
	}
	if err := s.store.UpsertObjectiveProgress(ctx, row); err != nil {
		return nil, err
	}

	return map[string]any{
		"objective": map[string]any{
			"id":        objectiveID,
			"completed": progress.Completed,
			"current":   progress.Current,
			"target":    progress.Target,
		},
	}, nil
}

// CatchUp batch-completes the prerequisite chains of the given quests,
// for users starting the tracker mid-playthrough. Targets are processed
// in order against the evolving snapshot, so shared prerequisites are
// completed once.
func (s *Service) CatchUp(ctx context.Context, session Session, questIDs []string) (map[string]any, error) {
	if len(questIDs) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "questIds is required", nil)
	}

	snap, err := s.loadSnapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	completed := make([]string, 0)
	touched := make([]string, 0, len(questIDs))
	for _, questID := range questIDs {
		result, err := engine.SkipToQuest(s.catalog.Graph, snap, questID, s.now())
		if err != nil {
			return nil, mapEngineError(err)
		}
		snap = result.Snapshot
		completed = append(completed, result.Completed...)
		touched = append(touched, questID)
	}
	touched = append(touched, completed...)

	if err := s.persistQuests(ctx, session.UserID, snap, touched, sourceWeb); err != nil {
		return nil, err
	}

	targets := make([]map[string]any, 0, len(questIDs))
	for _, questID := range questIDs {
		status, ok := snap.QuestStatus(questID)
		if !ok {
			status = engine.Resolve(s.catalog.Graph, snap, questID)
		}
		targets = append(targets, map[string]any{"id": questID, "status": string(status)})
	}

	return map[string]any{
		"completed": completed,
		"targets":   targets,
	}, nil
}

// WipeProgress deletes all quest and objective rows for the user.
func (s *Service) WipeProgress(ctx context.Context, session Session) (map[string]any, error) {
	count, err := s.store.ResetProgress(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"wiped": true, "questEntries": count}, nil
}

// Settings returns the user's tracker settings.
func (s *Service) Settings(ctx context.Context, session Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"playerLevel":            user.PlayerLevel,
		"bypassLevelRequirement": user.BypassLevelRequirement,
	}, nil
}

// UpdateSettings stores the player level and the level-gate bypass flag.
func (s *Service) UpdateSettings(ctx context.Context, session Session, playerLevel int, bypassLevel bool) (map[string]any, error) {
	if playerLevel < 1 || playerLevel > 99 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "playerLevel must be between 1 and 99", nil)
	}
	if err := s.store.UpdateUserSettings(ctx, session.UserID, playerLevel, bypassLevel); err != nil {
		return nil, err
	}
	return map[string]any{
		"playerLevel":            playerLevel,
		"bypassLevelRequirement": bypassLevel,
	}, nil
}

// Search runs a quest search through the configured backends.
func (s *Service) Search(q search.Query) search.Response {
	return s.search.Search(q)
}

// LinkCompanion mints a companion token for a new device. The raw token
// appears in this response and nowhere else.
func (s *Service) LinkCompanion(ctx context.Context, session Session, deviceName, gameMode string) (map[string]any, error) {
	deviceName = strings.TrimSpace(deviceName)
	if deviceName == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "deviceName is required", nil)
	}
	// The store constrains game_mode to these two values; normalize
	// before the row ever reaches it.
	gameMode = strings.ToUpper(strings.TrimSpace(gameMode))
	if gameMode == "" {
		gameMode = gameModePVP
	}
	if gameMode != gameModePVP && gameMode != gameModePVE {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "gameMode must be PVP or PVE", nil)
	}

	count, err := s.store.CountActiveCompanionTokens(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if count >= s.cfg.MaxCompanionTokens {
		return nil, domainError(http.StatusConflict, "TOKEN_LIMIT", "companion device limit reached", map[string]any{
			"limit": s.cfg.MaxCompanionTokens,
		})
	}

	raw, hint := auth.NewCompanionToken()
	hash, err := auth.HashCompanionToken(raw)
	if err != nil {
		return nil, err
	}

	token := store.CompanionToken{
		ID:         util.NewID("ctk"),
		UserID:     session.UserID,
		TokenHash:  hash,
		TokenHint:  hint,
		DeviceName: deviceName,
		GameMode:   gameMode,
	}
	if err := s.store.InsertCompanionToken(ctx, token); err != nil {
		return nil, err
	}

	return map[string]any{
		"id":         token.ID,
		"token":      raw,
		"tokenHint":  hint,
		"deviceName": deviceName,
		"gameMode":   gameMode,
	}, nil
}

// ListCompanions lists the user's companion devices. Raw tokens are
// never returned, only hints.
func (s *Service) ListCompanions(ctx context.Context, session Session) (map[string]any, error) {
	tokens, err := s.store.ListUserCompanionTokens(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(tokens))
	for _, token := range tokens {
		item := map[string]any{
			"id":         token.ID,
			"tokenHint":  token.TokenHint,
			"deviceName": token.DeviceName,
			"gameMode":   token.GameMode,
			"createdAt":  token.CreatedAt,
			"revoked":    token.RevokedAt != nil,
		}
		if token.LastSeen != nil {
			item["lastSeen"] = token.LastSeen
		}
		items = append(items, item)
	}
	return map[string]any{"devices": items}, nil
}

// UnlinkCompanion revokes one companion device.
func (s *Service) UnlinkCompanion(ctx context.Context, session Session, tokenID string) (map[string]any, error) {
	revoked, err := s.store.RevokeCompanionToken(ctx, session.UserID, tokenID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "companion device not found", nil)
	}
	return map[string]any{"revoked": true}, nil
}

// CompanionQuests returns the id to title/trader map the desktop app
// uses to render quest names. Catalog data only, no per-user state.
func (s *Service) CompanionQuests() map[string]any {
	quests := make(map[string]map[string]string, len(s.catalog.Quests))
	for _, quest := range s.catalog.Quests {
		entry := map[string]string{"title": quest.Title}
		if trader, ok := s.catalog.Trader(quest.TraderID); ok {
			entry["trader"] = trader.Name
		}
		quests[quest.ID] = entry
	}
	return map[string]any{
		"quests": quests,
		"count":  len(quests),
	}
}

// CompanionStatus returns the compact resolved state the desktop app
// polls for: quest statuses plus counted objective progress.
func (s *Service) CompanionStatus(ctx context.Context, device auth.CompanionDevice) (map[string]any, error) {
	snap, err := s.loadSnapshot(ctx, device.UserID)
	if err != nil {
		return nil, err
	}

	resolved := engine.ResolveAll(s.catalog.Graph, snap)
	quests := make(map[string]string, len(resolved))
	for questID, status := range resolved {
		quests[questID] = string(status)
	}

	objectives := make(map[string]map[string]any, len(snap.Objectives))
	for objectiveID, progress := range snap.Objectives {
		objectives[objectiveID] = map[string]any{
			"completed": progress.Completed,
			"current":   progress.Current,
			"target":    progress.Target,
		}
	}

	return map[string]any{
		"gameMode":   device.GameMode,
		"quests":     quests,
		"objectives": objectives,
	}, nil
}

// CompanionSync applies a batch of progress events from the desktop app,
// in order. Events the engine rejects are skipped and reported; one bad
// event must not discard the rest of the batch.
func (s *Service) CompanionSync(ctx context.Context, device auth.CompanionDevice, events []CompanionEvent) (map[string]any, error) {
	if len(events) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "events is required", nil)
	}

	snap, err := s.loadSnapshot(ctx, device.UserID)
	if err != nil {
		return nil, err
	}

	applied := make([]map[string]any, 0, len(events))
	rejected := make([]map[string]any, 0)
	touched := make([]string, 0, len(events))

	for _, event := range events {
		status, ok := companionStatusMap[event.Event]
		if !ok {
			rejected = append(rejected, map[string]any{
				"questId": event.QuestID,
				"reason":  "unknown event " + event.Event,
			})
			continue
		}

		result, err := engine.SetQuestStatus(s.catalog.Graph, snap, event.QuestID, status, s.now())
		if err != nil {
			var notFound *engine.NotFoundError
			var invalid *engine.ValidationError
			if errors.As(err, &notFound) || errors.As(err, &invalid) {
				rejected = append(rejected, map[string]any{
					"questId": event.QuestID,
					"reason":  err.Error(),
				})
				continue
			}
			return nil, err
		}

		snap = result.Snapshot
		touched = append(touched, event.QuestID)
		touched = append(touched, result.Unlocked...)
		touched = append(touched, result.Locked...)
		applied = append(applied, map[string]any{
			"questId": event.QuestID,
			"status":  string(status),
		})
	}

	if err := s.persistQuests(ctx, device.UserID, snap, touched, sourceCompanion); err != nil {
		return nil, err
	}

	return map[string]any{
		"applied":  applied,
		"rejected": rejected,
	}, nil
}

// ExportProgress renders the user's progress report in the requested
// format.
func (s *Service) ExportProgress(ctx context.Context, session Session, req export.Request) (*export.Result, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	report := s.buildReport(user, snap)
	result, err := s.export.Render(report, req)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF rendering is not available", nil)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) buildReport(user store.User, snap engine.Snapshot) export.Report {
	resolved := engine.ResolveAll(s.catalog.Graph, snap)

	report := export.Report{
		DisplayName: user.DisplayName,
		PlayerLevel: user.PlayerLevel,
		GeneratedAt: s.now(),
		TotalQuests: len(s.catalog.Quests),
	}

	sections := make(map[string]*export.TraderSection)
	order := make([]string, 0, len(s.catalog.Traders))
	for _, trader := range s.catalog.Traders {
		sections[trader.ID] = &export.TraderSection{
			TraderID:   trader.ID,
			TraderName: trader.Name,
		}
		order = append(order, trader.ID)
	}

	for _, quest := range s.catalog.Quests {
		section, ok := sections[quest.TraderID]
		if !ok {
			continue
		}
		status := resolved[quest.ID]

		line := export.QuestLine{
			ID:            quest.ID,
			Title:         quest.Title,
			Status:        string(status),
			LevelRequired: quest.LevelRequired,
			KappaRequired: quest.KappaRequired,
		}
		if qp, exists := snap.Quests[quest.ID]; exists {
			line.CompletedAt = qp.CompletedAt
		}
		for _, obj := range quest.Objectives {
			progress := snap.Objectives[obj.ID]
			objLine := export.ObjectiveLine{
				Description: obj.Description,
				Completed:   progress.Completed,
			}
			if obj.Counted() {
				objLine.Current = progress.Current
				objLine.Target = obj.Target
			}
			line.Objectives = append(line.Objectives, objLine)
		}

		section.Total++
		if status == engine.StatusCompleted {
			section.Completed++
			report.CompletedQuests++
		}
		if quest.KappaRequired {
			report.KappaTotal++
			if status == engine.StatusCompleted {
				report.KappaCompleted++
			}
		}
		section.Quests = append(section.Quests, line)
	}

	for _, traderID := range order {
		section := sections[traderID]
		if section.Total == 0 {
			continue
		}
		report.Traders = append(report.Traders, *section)
	}
	return report
}

// mapEngineError converts engine errors into transport-ready domain
// errors; anything else passes through untouched.
func mapEngineError(err error) error {
	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		return domainError(http.StatusNotFound, "NOT_FOUND", notFound.Error(), nil)
	}
	var invalid *engine.ValidationError
	if errors.As(err, &invalid) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", invalid.Error(), nil)
	}
	return err
}
