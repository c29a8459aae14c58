package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/config"
	"alfredoptarigan/hirematch/internal/logger"
	"alfredoptarigan/hirematch/internal/repositories"
	"alfredoptarigan/hirematch/internal/services"
)

const pageSize = 100

type listing struct {
	id      uuid.UUID
	text    string
	payload map[string]interface{}
}

type summary struct {
	embedded int
	skipped  int
	failed   int
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting embedding backfill")

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	listingRepo := repositories.NewListingRepository(db)

	ctx := context.Background()

	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.TextModel, cfg.Gemini.EmbedModel, log)
	if err != nil {
		log.Fatal("failed to initialize Gemini", zap.Error(err))
	}
	var provider services.EmbeddingProvider = geminiService
	if cfg.Gemini.EmbedTransport == "rest" {
		provider = services.NewRESTEmbedder(cfg.Gemini.RESTBaseURL, cfg.Gemini.APIKey, cfg.Gemini.EmbedModel, log)
	}
	embeddings := services.NewEmbeddingService(provider, log)

	tokens, err := services.NewServiceTokenSource(ctx, cfg.Firestore.CredentialsFile)
	if err != nil {
		log.Fatal("failed to load Firestore credentials", zap.Error(err))
	}
	firestore := services.NewFirestoreClient(services.FirestoreOptions{
		BaseURL:    cfg.Firestore.BaseURL,
		ProjectID:  cfg.Firestore.ProjectID,
		DatabaseID: cfg.Firestore.DatabaseID,
		APIKey:     cfg.Firestore.APIKey,
		Timeout:    30 * time.Second,
	}, tokens, log)

	// Qdrant mirror is optional.
	var qdrantService services.QdrantService
	if cfg.Search.Backend == "qdrant" {
		qdrantService, err = services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.CollectionPrefix, log)
		if err != nil {
			log.Fatal("failed to initialize Qdrant", zap.Error(err))
		}
		if err := qdrantService.InitCollections(ctx, services.JobsCollection, services.CandidatesCollection); err != nil {
			log.Fatal("failed to initialize Qdrant collections", zap.Error(err))
		}
	}

	write := func(collection string, l listing) error {
		vector, err := embeddings.GenerateForProfile(ctx, l.text)
		if err != nil {
			return err
		}
		if vector == nil {
			return errSkip
		}
		vector = services.Normalize(vector)

		if err := firestore.PatchDocument(ctx, collection, l.id.String(), l.payload, vector); err != nil {
			return err
		}
		if qdrantService != nil {
			if err := qdrantService.UpsertListing(ctx, collection, l.id, l.payload, vector); err != nil {
				return err
			}
		}
		return nil
	}

	jobs := backfill(log, services.JobsCollection, func(offset int) ([]listing, error) {
		rows, err := listingRepo.ListActiveJobs(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		out := make([]listing, 0, len(rows))
		for i := range rows {
			job := rows[i]
			out = append(out, listing{
				id:   job.ID,
				text: job.EmbeddingText(),
				payload: map[string]interface{}{
					"title":       job.Title,
					"company":     job.Company,
					"skills":      job.Skills,
					"work_mode":   job.WorkMode,
					"employer_id": job.EmployerID,
					"status":      string(job.Status),
				},
			})
		}
		return out, nil
	}, write)

	candidates := backfill(log, services.CandidatesCollection, func(offset int) ([]listing, error) {
		rows, err := listingRepo.ListActiveProfiles(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		out := make([]listing, 0, len(rows))
		for i := range rows {
			profile := rows[i]
			out = append(out, listing{
				id:   profile.ID,
				text: profile.EmbeddingText(),
				// active profiles are the publicly searchable ones
				payload: map[string]interface{}{
					"user_id":    profile.UserID,
					"headline":   profile.Headline,
					"skills":     profile.Skills,
					"visibility": "public",
				},
			})
		}
		return out, nil
	}, write)

	// Summary
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Backfill Summary:")
	fmt.Printf("   jobs:       %d embedded, %d skipped, %d failed\n", jobs.embedded, jobs.skipped, jobs.failed)
	fmt.Printf("   candidates: %d embedded, %d skipped, %d failed\n", candidates.embedded, candidates.skipped, candidates.failed)
	fmt.Println(strings.Repeat("=", 60))

	if jobs.failed+candidates.failed > 0 {
		fmt.Println("Some listings failed to backfill. Please check the logs above.")
		os.Exit(1)
	}

	fmt.Println("All listings backfilled successfully!")
}

var errSkip = errors.New("blank embedding text")

func backfill(
	log *zap.Logger,
	collection string,
	page func(offset int) ([]listing, error),
	write func(collection string, l listing) error,
) summary {
	var s summary
	for offset := 0; ; offset += pageSize {
		items, err := page(offset)
		if err != nil {
			log.Error("failed to list listings", zap.String("collection", collection), zap.Error(err))
			s.failed++
			return s
		}

		for _, l := range items {
			switch err := write(collection, l); {
			case err == nil:
				s.embedded++
			case errors.Is(err, errSkip):
				s.skipped++
			default:
				log.Error("failed to backfill listing",
					zap.String("collection", collection),
					zap.String("id", l.id.String()),
					zap.Error(err))
				s.failed++
			}
		}

		log.Info("progress",
			zap.String("collection", collection),
			zap.Int("embedded", s.embedded),
			zap.Int("skipped", s.skipped),
			zap.Int("failed", s.failed))

		if len(items) < pageSize {
			return s
		}
	}
}
