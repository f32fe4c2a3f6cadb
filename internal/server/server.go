package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/internal/metrics"
	"github.com/iwvelando/finance-schedule/internal/optimizer"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/iwvelando/finance-schedule/pkg/optimization"
	"github.com/iwvelando/finance-schedule/pkg/output"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the per-request id, echoed when the client sends one.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Options configures the HTTP handler.
type Options struct {
	MaxUploadSize int64
	Version       string
	// Runner computes schedules; nil creates one without a cache.
	Runner *simulation.Runner
	// Defaults supplies the day count and rate table for single-schedule
	// requests; nil uses the built-in defaults.
	Defaults *config.Configuration
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	runner        *simulation.Runner
	defaults      config.Configuration
}

// NewHandler constructs the HTTP handler that serves the schedule API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	runner := opts.Runner
	if runner == nil {
		runner = simulation.NewRunner(logger, nil)
	}

	var defaults config.Configuration
	if opts.Defaults != nil {
		defaults = *opts.Defaults
		defaults.Simulations = nil
	}
	defaults.ApplyDefaults()

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		runner:        runner,
		defaults:      defaults,
	}

	mux := http.NewServeMux()

	// Single schedule from JSON terms
	mux.Handle("/api/schedule", h.instrument("schedule", h.handleSchedule))

	// Every active simulation of an uploaded configuration
	mux.Handle("/api/simulate", h.instrument("simulate", h.handleSimulate))

	// Installment-count search over an uploaded configuration
	mux.Handle("/api/optimize", h.instrument("optimize", h.handleOptimize))

	// Config serialization endpoint for editor downloads
	mux.Handle("/api/editor/export", h.instrument("export", h.handleConfigExport))

	mux.Handle("/api/version", h.instrument("version", h.handleVersion))
	mux.Handle("/health", h.instrument("health", h.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

type scheduleRequest struct {
	Simulation config.Simulation `json:"simulation"`
}

type scheduleResponse struct {
	RequestID string          `json:"requestId"`
	Name      string          `json:"name"`
	Schedule  *loans.Schedule `json:"schedule"`
	Cached    bool            `json:"cached"`
	CSV       string          `json:"csv"`
	Warnings  []string        `json:"warnings,omitempty"`
	Duration  string          `json:"duration"`
}

type simulateResponse struct {
	RequestID   string                 `json:"requestId"`
	Simulations []simulation.Result    `json:"simulations"`
	CSV         string                 `json:"csv"`
	Warnings    []string               `json:"warnings,omitempty"`
	Duration    string                 `json:"duration"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

type optimizeResponse struct {
	RequestID string               `json:"requestId"`
	Summary   optimization.Summary `json:"summary"`
	Schedule  *loans.Schedule      `json:"schedule,omitempty"`
	CSV       string               `json:"csv,omitempty"`
	Duration  string               `json:"duration"`
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument assigns a request id and counts the response by endpoint and
// status code.
func (h *handler) instrument(endpoint string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		metrics.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var req scheduleRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode terms: %v", err), op)
		return
	}
	if strings.TrimSpace(req.Simulation.Name) == "" {
		req.Simulation.Name = "schedule"
	}

	result, err := h.runner.RunSimulation(r.Context(), h.defaults, req.Simulation)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}

	if r.URL.Query().Get("format") == constants.OutputFormatCSV {
		h.writeCSV(w, []simulation.Result{result})
		return
	}

	elapsed := time.Since(start)
	response := scheduleResponse{
		RequestID: requestID(r.Context()),
		Name:      result.Name,
		Schedule:  result.Schedule,
		Cached:    result.Cached,
		CSV:       output.CsvString([]simulation.Result{result}),
		Warnings:  warningMessages(result.Schedule),
		Duration:  elapsed.String(),
	}

	h.logger.Info("schedule computed",
		zap.String("op", op),
		zap.String("requestId", response.RequestID),
		zap.Int("rows", len(result.Schedule.Rows)),
		zap.Bool("cached", result.Cached),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	configBytes, ok := h.readUpload(w, r, op)
	if !ok {
		return
	}
	cfg, ok := h.loadConfig(w, r, configBytes, op)
	if !ok {
		return
	}
	configMap, err := configSections(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	results, err := h.runner.Run(r.Context(), *cfg)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), fmt.Sprintf("failed to compute schedules: %v", err), op)
		return
	}

	if r.URL.Query().Get("format") == constants.OutputFormatCSV {
		h.writeCSV(w, results)
		return
	}

	warnings := cfg.ValidateConfiguration()
	for _, result := range results {
		for _, msg := range warningMessages(result.Schedule) {
			warnings = append(warnings, fmt.Sprintf("%s: %s", result.Name, msg))
		}
	}

	elapsed := time.Since(start)
	response := simulateResponse{
		RequestID:   requestID(r.Context()),
		Simulations: results,
		CSV:         output.CsvString(results),
		Warnings:    warnings,
		Duration:    elapsed.String(),
		Config:      configMap,
	}
	if response.Simulations == nil {
		response.Simulations = []simulation.Result{}
	}

	h.logger.Info("simulations computed",
		zap.String("op", op),
		zap.String("requestId", response.RequestID),
		zap.Int("simulations", len(results)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	configBytes, ok := h.readUpload(w, r, op)
	if !ok {
		return
	}
	cfg, ok := h.loadConfig(w, r, configBytes, op)
	if !ok {
		return
	}

	runner, err := optimizer.NewRunner(h.logger, cfg, h.runner)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to initialize optimizer: %v", err), op)
		return
	}
	result, err := runner.Run(r.Context())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, r, status, fmt.Sprintf("optimizer execution failed: %v", err), op)
		return
	}

	response := optimizeResponse{
		RequestID: requestID(r.Context()),
		Summary:   result.Summary,
		Schedule:  result.Schedule,
		Duration:  time.Since(start).String(),
	}
	if result.Schedule != nil {
		response.CSV = output.CsvString([]simulation.Result{{Name: result.Summary.Simulation, Schedule: result.Schedule}})
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	sections := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&sections); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}

	yamlBytes, err := encodeConfigYAML(sections)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// readUpload returns the "file" part of a multipart upload. On failure the
// error response has been written.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing configuration file", op)
		return nil, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return nil, false
	}
	return buf.Bytes(), true
}

func (h *handler) loadConfig(w http.ResponseWriter, r *http.Request, data []byte, op string) (*config.Configuration, bool) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(data))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return nil, false
	}
	if err := cfg.Validate(); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid configuration: %v", err), op)
		return nil, false
	}
	return cfg, true
}

// statusFor maps engine failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loans.ErrInvalidTerms), errors.Is(err, loans.ErrOverSubscribed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func warningMessages(schedule *loans.Schedule) []string {
	if schedule == nil || len(schedule.Warnings) == 0 {
		return nil
	}
	messages := make([]string, 0, len(schedule.Warnings))
	for _, warning := range schedule.Warnings {
		messages = append(messages, warning.String())
	}
	return messages
}

// exportRank orders the top-level sections of an exported configuration.
// Unranked keys, such as simulations, follow alphabetically.
var exportRank = map[string]int{
	"logging":   1,
	"output":    2,
	"engine":    3,
	"rateTable": 4,
	"cache":     5,
	"tracing":   6,
	"optimizer": 7,
}

func rankOf(key string) int {
	if rank, ok := exportRank[key]; ok {
		return rank
	}
	return len(exportRank) + 1
}

func encodeConfigYAML(sections map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(sections))
	for key := range sections {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if ra, rb := rankOf(keys[a]), rankOf(keys[b]); ra != rb {
			return ra < rb
		}
		return keys[a] < keys[b]
	})

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		var value yaml.Node
		if err := value.Encode(sections[key]); err != nil {
			return nil, fmt.Errorf("section %s: %w", key, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &value)
	}
	return yaml.Marshal(doc)
}

// configSections decodes an uploaded configuration into generic sections so
// it can be echoed back with the results.
func configSections(data []byte) (map[string]interface{}, error) {
	sections := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) == 0 {
		return sections, nil
	}
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("schedule request failed",
		zap.String("op", op),
		zap.String("requestId", requestID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) writeCSV(w http.ResponseWriter, results []simulation.Result) {
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if err := output.WriteCsv(w, results); err != nil {
		h.logger.Error("failed to write CSV response", zap.Error(err))
	}
}
