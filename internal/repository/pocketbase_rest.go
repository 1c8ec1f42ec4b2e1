// Package repository provides PocketBase REST API implementations
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"attendance-report/internal/models"
)

const (
	AttendanceCollection = "attendance"
	ReasonCollection     = "lateReasons"

	// keyField holds the record id; PocketBase ids are system generated
	keyField    = "record_key"
	listPerPage = 500

	// listSort is insertion order; base collections carry no created field unless the schema adds one
	listSort = "@rowid"
)

// PocketBaseConfig configures the REST client
type PocketBaseConfig struct {
	BaseURL           string
	AuthToken         string
	RequestsPerSecond float64
	Timeout           time.Duration
}

type pocketBaseClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func newPocketBaseClient(cfg PocketBaseConfig, logger *zap.Logger) *pocketBaseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(cfg.RequestsPerSecond) + 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pocketBaseClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

func (c *pocketBaseClient) addAuthHeader(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("pocketbase responded %d: %s", e.status, e.body)
}

// do sends one request and decodes the JSON response into out when out is non-nil
func (c *pocketBaseClient) do(ctx context.Context, method, path string, payload any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("❌ PocketBase request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	c.logger.Debug("PocketBase response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{status: resp.StatusCode, body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

type listPage struct {
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Items      []json.RawMessage `json:"items"`
}

// listAll walks every page of a collection
func (c *pocketBaseClient) listAll(ctx context.Context, collection, filter string, fn func(json.RawMessage) error) error {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", fmt.Sprint(page))
		q.Set("perPage", fmt.Sprint(listPerPage))
		q.Set("sort", listSort)
		if filter != "" {
			q.Set("filter", filter)
		}

		var result listPage
		if err := c.do(ctx, http.MethodGet, recordsPath(collection)+"?"+q.Encode(), nil, &result); err != nil {
			return err
		}
		for _, item := range result.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if len(result.Items) == 0 || page >= result.TotalPages {
			return nil
		}
	}
}

// findByKey returns the PocketBase id of the record holding key, or "" when none does
func (c *pocketBaseClient) findByKey(ctx context.Context, collection, key string) (string, error) {
	q := url.Values{}
	q.Set("filter", keyField+"="+quoteFilter(key))
	q.Set("perPage", "1")
	q.Set("skipTotal", "1")

	var result struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, recordsPath(collection)+"?"+q.Encode(), nil, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].ID, nil
}

// upsertByKey patches the record holding key, or creates it when none exists
func (c *pocketBaseClient) upsertByKey(ctx context.Context, collection, key string, create, update map[string]any) error {
	pbID, err := c.findByKey(ctx, collection, key)
	if err != nil {
		return err
	}
	if pbID != "" {
		return c.do(ctx, http.MethodPatch, recordsPath(collection)+"/"+url.PathEscape(pbID), update, nil)
	}
	return c.do(ctx, http.MethodPost, recordsPath(collection), create, nil)
}

func recordsPath(collection string) string {
	return "/api/collections/" + collection + "/records"
}

// quoteFilter wraps a value as a PocketBase filter string literal
func quoteFilter(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// PocketBaseAttendanceStore implements AttendanceStore
type PocketBaseAttendanceStore struct {
	client *pocketBaseClient
}

// NewPocketBaseAttendanceStore creates repository
func NewPocketBaseAttendanceStore(cfg PocketBaseConfig, logger *zap.Logger) *PocketBaseAttendanceStore {
	return &PocketBaseAttendanceStore{client: newPocketBaseClient(cfg, logger)}
}

type pbAttendance struct {
	ID           string `json:"id"`
	RecordKey    string `json:"record_key"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
	Date         string `json:"date"`
	S1           string `json:"s1"`
	S2           string `json:"s2"`
	C1           string `json:"c1"`
	C2           string `json:"c2"`
}

var slotKeys = [models.SlotCount]string{"s1", "s2", "c1", "c2"}

func (p pbAttendance) toModel() models.AttendanceRecord {
	date, _ := models.ParseDate(p.Date)
	rec := models.AttendanceRecord{
		ID:           p.RecordKey,
		EmployeeName: p.EmployeeName,
		Department:   p.Department,
		Date:         date,
	}
	for i, raw := range []string{p.S1, p.S2, p.C1, p.C2} {
		// Stored garbage reads as not recorded
		if c, err := models.ParseClock(raw); err == nil {
			rec.Slots[i] = c
		}
	}
	if rec.ID == "" {
		rec.ID = models.RecordID(rec.EmployeeName, rec.Date)
	}
	rec.MarkComplete()
	return rec
}

func (s *PocketBaseAttendanceStore) FetchAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	err := s.client.listAll(ctx, AttendanceCollection, "", func(raw json.RawMessage) error {
		var item pbAttendance
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		out = append(out, item.toModel())
		return nil
	})
	if err != nil {
		return nil, &models.PersistenceError{Op: "fetch attendance", Err: err}
	}
	s.client.logger.Debug("🔍 Loaded attendance records", zap.Int("count", len(out)))
	return out, nil
}

func (s *PocketBaseAttendanceStore) Get(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	var found *models.AttendanceRecord
	err := s.client.listAll(ctx, AttendanceCollection, keyField+"="+quoteFilter(id), func(raw json.RawMessage) error {
		var item pbAttendance
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		rec := item.toModel()
		found = &rec
		return nil
	})
	if err != nil {
		return nil, &models.PersistenceError{Op: "get attendance", Key: id, Err: err}
	}
	if found == nil {
		return nil, models.ErrNotFound
	}
	return found, nil
}

func (s *PocketBaseAttendanceStore) Upsert(ctx context.Context, record models.AttendanceRecord) error {
	create := map[string]any{
		keyField:        record.ID,
		"employee_name": record.EmployeeName,
		"department":    record.Department,
		"date":          record.Date.String(),
	}
	update := map[string]any{
		keyField:        record.ID,
		"employee_name": record.EmployeeName,
		"date":          record.Date.String(),
	}
	if record.HasDepartment() {
		update["department"] = record.Department
	}
	for _, slot := range models.Slots {
		create[slotKeys[slot]] = record.Slot(slot).String()
		if record.HasSlot(slot) {
			update[slotKeys[slot]] = record.Slot(slot).String()
		}
	}

	if err := s.client.upsertByKey(ctx, AttendanceCollection, record.ID, create, update); err != nil {
		return &models.PersistenceError{Op: "upsert attendance", Key: record.ID, Err: err}
	}
	s.client.logger.Debug("💾 Saved attendance record", zap.String("id", record.ID))
	return nil
}

func (s *PocketBaseAttendanceStore) ClearAll(ctx context.Context) error {
	var ids []string
	err := s.client.listAll(ctx, AttendanceCollection, "", func(raw json.RawMessage) error {
		var item struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		ids = append(ids, item.ID)
		return nil
	})
	if err != nil {
		return &models.PersistenceError{Op: "clear attendance", Err: err}
	}

	for _, id := range ids {
		if err := s.client.do(ctx, http.MethodDelete, recordsPath(AttendanceCollection)+"/"+url.PathEscape(id), nil, nil); err != nil {
			return &models.PersistenceError{Op: "clear attendance", Key: id, Err: err}
		}
	}
	s.client.logger.Info("🗑️ Cleared attendance records", zap.Int("count", len(ids)))
	return nil
}

// PocketBaseReasonStore implements ReasonStore
type PocketBaseReasonStore struct {
	client *pocketBaseClient
}

func NewPocketBaseReasonStore(cfg PocketBaseConfig, logger *zap.Logger) *PocketBaseReasonStore {
	return &PocketBaseReasonStore{client: newPocketBaseClient(cfg, logger)}
}

type pbReason struct {
	RecordKey string  `json:"record_key"`
	Morning   *string `json:"morning"`
	Afternoon *string `json:"afternoon"`
}

func (p pbReason) toModel() models.Reason {
	return models.Reason{Morning: p.Morning, Afternoon: p.Afternoon}
}

// fetch collects the reasons matching filter, merging duplicates of one key
func (s *PocketBaseReasonStore) fetch(ctx context.Context, filter string) (models.ReasonSet, error) {
	out := make(models.ReasonSet)
	err := s.client.listAll(ctx, ReasonCollection, filter, func(raw json.RawMessage) error {
		var item pbReason
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		out[item.RecordKey] = out[item.RecordKey].Merge(item.toModel())
		return nil
	})
	return out, err
}

func (s *PocketBaseReasonStore) FetchAll(ctx context.Context) (models.ReasonSet, error) {
	out, err := s.fetch(ctx, "")
	if err != nil {
		return nil, &models.PersistenceError{Op: "fetch reasons", Err: err}
	}
	return out, nil
}

func (s *PocketBaseReasonStore) Get(ctx context.Context, id string) (*models.Reason, error) {
	found, err := s.fetch(ctx, keyField+"="+quoteFilter(id))
	if err != nil {
		return nil, &models.PersistenceError{Op: "get reason", Key: id, Err: err}
	}
	r, ok := found[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (s *PocketBaseReasonStore) Upsert(ctx context.Context, id string, reason models.Reason) error {
	data := map[string]any{keyField: id}
	if reason.Morning != nil {
		data[string(models.ReasonMorning)] = *reason.Morning
	}
	if reason.Afternoon != nil {
		data[string(models.ReasonAfternoon)] = *reason.Afternoon
	}
	if err := s.client.upsertByKey(ctx, ReasonCollection, id, data, data); err != nil {
		return &models.PersistenceError{Op: "upsert reason", Key: id, Err: err}
	}
	return nil
}

var (
	_ AttendanceStore = (*PocketBaseAttendanceStore)(nil)
	_ ReasonStore     = (*PocketBaseReasonStore)(nil)
)
