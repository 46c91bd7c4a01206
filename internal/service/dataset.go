package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lexicognize/lexicognize/internal/hfimport"
	"github.com/lexicognize/lexicognize/internal/langid"
	"github.com/lexicognize/lexicognize/internal/metrics"
	"github.com/lexicognize/lexicognize/internal/middleware"
	"github.com/lexicognize/lexicognize/internal/model"
	"github.com/lexicognize/lexicognize/internal/repository"
	"github.com/lexicognize/lexicognize/internal/storage"
	"github.com/lexicognize/lexicognize/internal/translit"
	"github.com/lexicognize/lexicognize/internal/webhook"
)

// Dataset service errors.
var (
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrDatasetForbidden  = errors.New("dataset access denied")
	ErrDatasetInUse      = errors.New("dataset is used by an active training job")
	ErrEmptyDataset      = errors.New("dataset contains no records")
	ErrInvalidRecord     = errors.New("invalid dataset record")
	ErrDatasetTooSmall   = errors.New("dataset needs at least 10 records for training")
	ErrHubDatasetMissing = errors.New("dataset not found on hub")
)

// MinTrainingRecords is the smallest corpus worth fine-tuning on.
const MinTrainingRecords = 10

// DatasetService handles dataset upload, import, and lifecycle.
type DatasetService struct {
	repo      *repository.Repository
	store     *storage.Local
	hub       *hfimport.Client
	publisher *webhook.Publisher
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewDatasetService creates a DatasetService.
func NewDatasetService(repo *repository.Repository, store *storage.Local, hub *hfimport.Client, publisher *webhook.Publisher, recorder metrics.Recorder, logger *slog.Logger) *DatasetService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &DatasetService{
		repo:      repo,
		store:     store,
		hub:       hub,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger.With("component", "service.dataset"),
	}
}

// UploadFile is one file part of a dataset upload.
type UploadFile struct {
	Filename string
	Body     io.Reader
}

// UploadInput defines input for a dataset upload.
type UploadInput struct {
	UserID      string
	Name        string
	Description string
	Files       []UploadFile
}

// Upload validates uploaded JSON files and stores them as one dataset.
// Records from multiple files are concatenated in upload order.
func (s *DatasetService) Upload(ctx context.Context, input UploadInput) (*model.Dataset, error) {
	if err := middleware.ValidateResourceName(input.Name); err != nil {
		return nil, err
	}
	if err := middleware.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	records, originalName, err := mergeUploadFiles(input.Files)
	if err != nil {
		return nil, err
	}

	return s.create(ctx, input.UserID, input.Name, input.Description, originalName, model.DatasetSourceUpload, records)
}

// mergeUploadFiles decodes each uploaded file and concatenates the
// records in upload order. The combined original filename is the
// comma-joined list of part filenames.
func mergeUploadFiles(files []UploadFile) ([]model.Record, string, error) {
	if len(files) == 0 {
		return nil, "", ErrEmptyDataset
	}

	var records []model.Record
	names := make([]string, 0, len(files))
	for _, f := range files {
		recs, err := DecodeRecords(f.Body)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", f.Filename, err)
		}
		records = append(records, recs...)
		names = append(names, f.Filename)
	}
	return records, strings.Join(names, ","), nil
}

// ImportFromHub pulls a dataset from the Hugging Face Hub in the
// background and registers it on completion. Returns immediately.
func (s *DatasetService) ImportFromHub(ctx context.Context, userID, name, datasetID, config, split string, mapping hfimport.FieldMapping) error {
	if err := middleware.ValidateResourceName(name); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		records, err := s.hub.Import(ctx, datasetID, config, split, mapping, 0)
		if err != nil {
			s.logger.Error("hub import failed",
				"hub_dataset", datasetID,
				"user_id", userID,
				"error", err,
			)
			return
		}

		ds, err := s.create(ctx, userID, name, "Imported from "+datasetID, datasetID, model.DatasetSourceHFImport, records)
		if err != nil {
			s.logger.Error("register imported dataset",
				"hub_dataset", datasetID,
				"user_id", userID,
				"error", err,
			)
			return
		}

		s.metrics.IncDatasetImported()
		s.logger.Info("hub import completed",
			"dataset_id", ds.ID,
			"hub_dataset", datasetID,
			"samples", ds.Metadata.Samples,
		)

		if s.publisher != nil {
			if err := s.publisher.PublishDatasetImported(ctx, ds); err != nil {
				s.logger.Warn("publish dataset.imported", "dataset_id", ds.ID, "error", err)
			}
		}
	}()
	return nil
}

// create stores records on disk and inserts the dataset row.
func (s *DatasetService) create(ctx context.Context, userID, name, description, originalFilename, source string, records []model.Record) (*model.Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	id := ulid.Make().String()

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}

	saved, err := s.store.SaveDataset(userID, id, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	now := time.Now().UTC()
	ds := &model.Dataset{
		ID:               id,
		UserID:           userID,
		Name:             name,
		Description:      description,
		FilePath:         saved.Path,
		FileSize:         saved.Size,
		FileFormat:       model.FormatJSON,
		OriginalFilename: originalFilename,
		ContentHash:      saved.ContentHash,
		Metadata: model.DatasetMetadata{
			Samples:     len(records),
			Languages:   recordLanguages(records),
			CreatedFrom: source,
		},
		Statistics: ComputeStatistics(records),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateDataset(ctx, ds); err != nil {
		_ = s.store.RemoveDataset(saved.Path)
		return nil, fmt.Errorf("create dataset: %w", err)
	}

	s.metrics.IncDatasetUploaded()
	return ds, nil
}

// Get returns a dataset the user can read.
func (s *DatasetService) Get(ctx context.Context, userID, id string) (*model.Dataset, error) {
	ds, err := s.repo.GetDatasetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDatasetNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	// Cross-tenant reads 404 rather than 403 to avoid leaking IDs.
	if !ds.AccessibleBy(userID) {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

// List returns datasets visible to the user.
func (s *DatasetService) List(ctx context.Context, filter repository.DatasetFilter, cursor string, limit int) ([]*model.Dataset, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListDatasets(ctx, filter, cursor, limit)
}

// UpdateInput defines mutable dataset fields.
type UpdateInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// Update edits dataset metadata. Owner only.
func (s *DatasetService) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Dataset, error) {
	ds, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := middleware.ValidateResourceName(*input.Name); err != nil {
			return nil, err
		}
		ds.Name = *input.Name
	}
	if input.Description != nil {
		if err := middleware.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
		ds.Description = *input.Description
	}
	if input.IsPublic != nil {
		ds.IsPublic = *input.IsPublic
	}

	if err := s.repo.UpdateDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("update dataset: %w", err)
	}
	return ds, nil
}

// Share replaces the dataset's share list. Owner only.
func (s *DatasetService) Share(ctx context.Context, userID, id string, sharedWith []string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.ShareDataset(ctx, id, sharedWith); err != nil {
		return fmt.Errorf("share dataset: %w", err)
	}
	return nil
}

// Delete soft-deletes a dataset and removes its file. Blocked while a
// pending or running training job references it.
func (s *DatasetService) Delete(ctx context.Context, userID, id string) error {
	ds, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	inUse, err := s.repo.DatasetInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check dataset usage: %w", err)
	}
	if inUse {
		return ErrDatasetInUse
	}

	if err := s.repo.DeleteDataset(ctx, id); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if err := s.store.RemoveDataset(ds.FilePath); err != nil {
		s.logger.Warn("remove dataset file", "dataset_id", id, "error", err)
	}
	return nil
}

// RecomputeStats re-derives the statistics blob from the stored records
// and persists it. Owner only.
func (s *DatasetService) RecomputeStats(ctx context.Context, userID, id string) (map[string]any, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}

	records, err := s.ReadRecords(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	stats := ComputeStatistics(records)
	if err := s.repo.UpdateDatasetStatistics(ctx, id, stats); err != nil {
		return nil, fmt.Errorf("update dataset statistics: %w", err)
	}
	return stats, nil
}

// LanguageStats aggregates how much training data the user can reach
// per language, across owned, shared, and public datasets.
func (s *DatasetService) LanguageStats(ctx context.Context, userID string) ([]repository.LanguageDataStat, error) {
	stats, err := s.repo.DatasetLanguageStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("language stats: %w", err)
	}
	return stats, nil
}

// PreviewRecords is how many records the dataset detail view returns.
const PreviewRecords = 10

// Preview returns the first few stored records of a dataset.
func (s *DatasetService) Preview(ctx context.Context, userID, id string) ([]model.Record, error) {
	records, err := s.ReadRecords(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(records) > PreviewRecords {
		records = records[:PreviewRecords]
	}
	return records, nil
}

// ReadRecords loads the stored records of a dataset.
func (s *DatasetService) ReadRecords(ctx context.Context, userID, id string) ([]model.Record, error) {
	ds, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	f, err := s.store.OpenDataset(ds.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var records []model.Record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}

func (s *DatasetService) getOwned(ctx context.Context, userID, id string) (*model.Dataset, error) {
	ds, err := s.repo.GetDatasetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDatasetNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	if ds.UserID != userID {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

// DecodeRecords parses and validates an uploaded JSON dataset. The file
// is either an array of records or an object with a "data" array.
func DecodeRecords(r io.Reader) ([]model.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var records []model.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		var wrapper struct {
			Data []model.Record `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: not valid JSON records", ErrInvalidRecord)
		}
		records = wrapper.Data
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	for i, rec := range records {
		if rec.Source == "" {
			return nil, fmt.Errorf("%w: record %d missing source", ErrInvalidRecord, i)
		}
		if rec.Target == "" && len(rec.Targets) == 0 {
			return nil, fmt.Errorf("%w: record %d missing target", ErrInvalidRecord, i)
		}
	}
	return records, nil
}

// ComputeStatistics derives the statistics blob for a dataset: length
// distributions, language breakdown, and legal-term frequency.
func ComputeStatistics(records []model.Record) map[string]any {
	var srcWords, tgtWords lengthStats
	langCounts := make(map[string]int)
	termCounts := make(map[string]int)

	for _, rec := range records {
		srcWords.add(wordCount(rec.Source))
		if rec.Target != "" {
			tgtWords.add(wordCount(rec.Target))
		}

		lang := rec.Language
		if lang == "" {
			lang = langid.Detect(rec.Source).Language
		}
		langCounts[lang]++

		for term, n := range translit.LegalTermCounts(rec.Source) {
			termCounts[term] += n
		}
	}

	return map[string]any{
		"samples":       len(records),
		"source_length": srcWords.summary(),
		"target_length": tgtWords.summary(),
		"languages":     langCounts,
		"legal_terms":   termCounts,
	}
}

func recordLanguages(records []model.Record) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, rec := range records {
		lang := rec.Language
		if lang == "" {
			lang = langid.Detect(rec.Source).Language
		}
		if lang != "" && !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs
}

type lengthStats struct {
	count int
	sum   int
	min   int
	max   int
}

func (l *lengthStats) add(n int) {
	if l.count == 0 || n < l.min {
		l.min = n
	}
	if n > l.max {
		l.max = n
	}
	l.count++
	l.sum += n
}

func (l *lengthStats) summary() map[string]any {
	if l.count == 0 {
		return map[string]any{"mean": 0, "min": 0, "max": 0}
	}
	return map[string]any{
		"mean": float64(l.sum) / float64(l.count),
		"min":  l.min,
		"max":  l.max,
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
