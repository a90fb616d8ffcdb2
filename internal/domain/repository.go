package domain

import (
	"context"
	"time"
)

// Document is anything kept in a keyed collection.
type Document interface {
	DocumentID() string
}

// Collection is the per-collection document API: snapshot read, keyed get,
// create, whole-document update (omitted fields are dropped) and delete.
type Collection[T Document] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, doc T) error
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, id string) error
}

// Store groups the collections and singleton documents of a workspace.
type Store interface {
	Leads() Collection[Lead]
	Campaigns() Collection[Campaign]
	CampaignGroups() Collection[CampaignGroup]

	// LoadGoals returns ErrNotFound when no goals were saved yet.
	LoadGoals(ctx context.Context) (*GoalSettings, error)
	SaveGoals(ctx context.Context, goals *GoalSettings) error

	LoadPlatformMetrics(ctx context.Context) ([]PlatformMetrics, error)
	SavePlatformMetrics(ctx context.Context, metrics []PlatformMetrics) error

	// Backend names the implementation for logs and metrics.
	Backend() string
}

// RollupCache keeps encoded dashboards. Get reports the generation it read;
// Set stores only while that generation is current, so a value computed
// before an Invalidate is dropped. Invalidate drops every entry.
type RollupCache interface {
	Get(ctx context.Context, key string) (value []byte, generation int64, ok bool, err error)
	Set(ctx context.Context, key string, generation int64, value []byte) error
	Invalidate(ctx context.Context) error
}

type ReportPrompt struct {
	System      string
	Context     []byte
	Instruction string
}

// ReportGenerator turns a JSON context blob and an instruction into Markdown.
type ReportGenerator interface {
	Generate(ctx context.Context, prompt ReportPrompt) (string, error)
	Model() string
}

// ExportClient pushes an encoded dashboard to an external sink.
type ExportClient interface {
	Export(ctx context.Context, payload []byte, generatedAt time.Time) error
}
