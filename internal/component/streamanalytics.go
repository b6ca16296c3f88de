package component

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lazyvibe/iotwb/internal/cloud"
	"github.com/lazyvibe/iotwb/internal/model"
)

// InfoStreamAnalyticsJobName is the key recorded by StreamAnalyticsJob.
const InfoStreamAnalyticsJobName = "streamAnalyticsJobName"

// Placeholders of the query template.
const (
	QueryInputPlaceholder  = "[input]"
	QueryOutputPlaceholder = "[output]"
)

// StreamAnalyticsJob routes messages from its Input hub to its Other sink.
type StreamAnalyticsJob struct {
	cloudBase
	queryPath string
}

// NewStreamAnalyticsJob returns a job whose query lives in the
// StreamAnalytics folder of the project root.
func NewStreamAnalyticsJob(env Env, id string, deps []Dependency) *StreamAnalyticsJob {
	j := &StreamAnalyticsJob{cloudBase: newCloudBase(env, model.ComponentStreamAnalyticsJob, id, "Stream Analytics Job", deps)}
	j.folder = model.AsaFolderName
	j.queryPath = filepath.Join(env.Root, model.AsaFolderName, model.AsaQueryFileName)
	return j
}

// QueryPath returns the query file path.
func (j *StreamAnalyticsJob) QueryPath() string { return j.queryPath }

// DefaultQuery returns the query template.
func DefaultQuery() (string, error) {
	data, err := readTemplate(model.AsaQueryFileName)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RenderQuery replaces the first input placeholder with the quoted
// resource reference of the Input dependency and the first output
// placeholder with that of the Other dependency. A placeholder without a
// matching dependency is left as is.
func RenderQuery(query string, deps []Dependency) string {
	if in, ok := First(deps, model.DependencyInput); ok {
		query = strings.Replace(query, QueryInputPlaceholder, `"`+ResourceRef(in.Component)+`"`, 1)
	}
	if out, ok := First(deps, model.DependencyOther); ok {
		query = strings.Replace(query, QueryOutputPlaceholder, `"`+ResourceRef(out.Component)+`"`, 1)
	}
	return query
}

func (j *StreamAnalyticsJob) Load(ctx context.Context) (bool, error) {
	return j.loadInfo(ctx)
}

// Create writes the rendered query file.
func (j *StreamAnalyticsJob) Create(ctx context.Context) (bool, error) {
	query, err := DefaultQuery()
	if err != nil {
		return false, err
	}
	if err := writeFile(j.queryPath, []byte(RenderQuery(query, j.deps))); err != nil {
		return false, fmt.Errorf("creating %s: %w", j.name, err)
	}
	if err := j.appendRecord(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (j *StreamAnalyticsJob) Provision(ctx context.Context, target cloud.Target) (bool, error) {
	name, ok, err := askName(ctx, j.env.Prompter, "Enter Stream Analytics job name", j.info[InfoStreamAnalyticsJobName], asaJobNameRule)
	if err != nil || !ok {
		return false, err
	}
	if err := j.env.Toolkit.CreateStreamAnalyticsJob(ctx, target, name); err != nil {
		return false, err
	}
	if err := j.saveTarget(ctx, target, map[string]string{InfoStreamAnalyticsJobName: name}); err != nil {
		return false, err
	}
	return true, nil
}

// Deploy uploads the query file and starts the job. It returns false when
// the job has not been provisioned.
func (j *StreamAnalyticsJob) Deploy(ctx context.Context) (bool, error) {
	name := j.info[InfoStreamAnalyticsJobName]
	if name == "" {
		j.env.Notifier.Warn(ctx, "Stream Analytics job has not been provisioned. Run \"iotwb provision\" first.")
		return false, nil
	}
	query, err := os.ReadFile(j.queryPath)
	if err != nil {
		return false, fmt.Errorf("reading query: %w", err)
	}

	target := j.target()
	if err := j.env.Toolkit.UpdateStreamAnalyticsQuery(ctx, target, name, string(query)); err != nil {
		return false, err
	}
	j.env.Logger.Info().Str("job", name).Msg("Starting Stream Analytics job")
	if err := j.env.Toolkit.StartStreamAnalyticsJob(ctx, target, name); err != nil {
		return false, err
	}
	return true, nil
}
