package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/voxmock/voxmock/pkg/adapter"
	"github.com/voxmock/voxmock/pkg/repository"
	"github.com/voxmock/voxmock/pkg/usecase/memory"
)

// config holds configuration values
type config struct {
	// Repository
	backend  string
	project  string
	database string

	// Gemini
	geminiProject  string
	geminiLocation string

	// Vector index
	qdrantURL        string
	qdrantAPIKey     string
	qdrantCollection string
	vectorDimension  int64

	// External services
	deepgramAPIKey string
	analysisURL    string
	archiveBucket  string

	// Topic classifier
	vocabularyPath string
}

// repositoryFlags returns persistence flags with destination config
func repositoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Persistence backend (firestore, memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("VOXMOCK_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// geminiFlags returns LLM flags with destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// vectorFlags returns vector index flags with destination config
func vectorFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "qdrant-url",
			Usage:       "Qdrant base URL",
			Value:       "http://localhost:6333",
			Sources:     cli.EnvVars("QDRANT_URL"),
			Destination: &cfg.qdrantURL,
		},
		&cli.StringFlag{
			Name:        "qdrant-api-key",
			Usage:       "Qdrant API key",
			Sources:     cli.EnvVars("QDRANT_API_KEY"),
			Destination: &cfg.qdrantAPIKey,
		},
		&cli.StringFlag{
			Name:        "qdrant-collection",
			Usage:       "Qdrant collection name",
			Value:       "interview_memories",
			Sources:     cli.EnvVars("QDRANT_COLLECTION"),
			Destination: &cfg.qdrantCollection,
		},
		&cli.IntFlag{
			Name:        "vector-dimension",
			Usage:       "Embedding vector dimension",
			Value:       768,
			Sources:     cli.EnvVars("VOXMOCK_VECTOR_DIMENSION"),
			Destination: &cfg.vectorDimension,
		},
	}
}

// serviceFlags returns flags for the external transcription, analysis and
// archive services
func serviceFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "deepgram-api-key",
			Usage:       "Deepgram API key for speech-to-text",
			Sources:     cli.EnvVars("DEEPGRAM_API_KEY"),
			Destination: &cfg.deepgramAPIKey,
		},
		&cli.StringFlag{
			Name:        "analysis-url",
			Usage:       "Voice and body language analysis service URL (optional)",
			Sources:     cli.EnvVars("ANALYSIS_SERVICE_URL"),
			Destination: &cfg.analysisURL,
		},
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "GCS bucket for audio archiving (optional)",
			Sources:     cli.EnvVars("VOXMOCK_ARCHIVE_BUCKET"),
			Destination: &cfg.archiveBucket,
		},
		&cli.StringFlag{
			Name:        "topic-vocabulary",
			Usage:       "Path to YAML topic vocabulary for memory classification (optional)",
			Sources:     cli.EnvVars("VOXMOCK_TOPIC_VOCABULARY"),
			Destination: &cfg.vocabularyPath,
		},
	}
}

// newRepository creates a repository instance for the configured backend
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.backend {
	case "memory":
		return repository.NewMemory(), nil
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo, err := repository.New(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil
	default:
		return nil, goerr.New("unknown backend", goerr.Value("backend", cfg.backend))
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithEmbeddingDimension(int32(cfg.vectorDimension)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newVectorIndex creates the vector index client and ensures its collection
func (cfg *config) newVectorIndex(ctx context.Context) (adapter.VectorIndex, error) {
	if cfg.qdrantURL == "" {
		return nil, goerr.New("qdrant-url is required")
	}

	index := adapter.NewQdrant(cfg.qdrantURL, cfg.qdrantAPIKey, cfg.qdrantCollection, int(cfg.vectorDimension))
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to ensure vector collection")
	}
	return index, nil
}

// newTranscriber creates the speech-to-text adapter
func (cfg *config) newTranscriber() (adapter.Transcriber, error) {
	if cfg.deepgramAPIKey == "" {
		return nil, goerr.New("deepgram-api-key is required")
	}
	return adapter.NewDeepgram(cfg.deepgramAPIKey), nil
}

// newAnalysis creates the paralinguistic analysis adapter, nil when not
// configured
func (cfg *config) newAnalysis() adapter.Analysis {
	if cfg.analysisURL == "" {
		return nil
	}
	return adapter.NewAnalysis(cfg.analysisURL)
}

// newArchive creates the audio archive, nil when not configured
func (cfg *config) newArchive(ctx context.Context) (adapter.Storage, error) {
	if cfg.archiveBucket == "" {
		return nil, nil
	}

	archive, err := adapter.NewStorage(ctx, cfg.archiveBucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create audio archive")
	}
	return archive, nil
}

// newClassifier creates the topic classifier, with the built-in vocabulary
// unless a custom one is configured
func (cfg *config) newClassifier() (memory.TopicClassifier, error) {
	if cfg.vocabularyPath == "" {
		return memory.NewKeywordClassifier(nil), nil
	}

	vocabulary, err := memory.LoadVocabulary(cfg.vocabularyPath)
	if err != nil {
		return nil, err
	}
	return memory.NewKeywordClassifier(vocabulary), nil
}
