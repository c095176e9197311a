package batch

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"mix-optimizer/internal/errors"
	"mix-optimizer/internal/mixer"
)

// Kind selects which search a job runs.
type Kind string

const (
	// KindPath jobs run a shortest path search.
	KindPath Kind = "path"
	// KindOptimize jobs run a profit search.
	KindOptimize Kind = "optimize"
)

// Job is one entry of a job file. Exactly one of Path and Optimize is set,
// matching Kind.
type Job struct {
	ID       string
	Kind     Kind
	Path     *mixer.PathRequest
	Optimize *mixer.OptimizeRequest
}

// LoadJobs reads and parses a job file.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "read jobs file "+path, err)
	}
	return ParseJobs(data)
}

// ParseJobs parses a JSON array of jobs.
//
// A job without "kind" is a path job when it has "desired" and an optimize
// job otherwise. Optimize jobs accept the production options either at the
// top level or nested under "prod_options", and "drug_type" as an alias of
// "product". Effect lists may be arrays or comma-separated strings. Jobs
// without an "id" get a random UUID.
func ParseJobs(data []byte) ([]Job, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "jobs file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "jobs file must hold a JSON array")
	}

	var (
		jobs   []Job
		parseE error
	)
	root.ForEach(func(_, v gjson.Result) bool {
		job, err := parseJob(v)
		if err != nil {
			parseE = fmt.Errorf("job %d: %w", len(jobs), err)
			return false
		}
		jobs = append(jobs, job)
		return true
	})
	if parseE != nil {
		return nil, parseE
	}
	return jobs, nil
}

func parseJob(v gjson.Result) (Job, error) {
	if !v.IsObject() {
		return Job{}, errors.New(errors.ErrCodeInvalidRequest, "job must be a JSON object")
	}

	job := Job{
		ID:   v.Get("id").String(),
		Kind: Kind(strings.ToLower(v.Get("kind").String())),
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Kind == "" {
		job.Kind = KindOptimize
		if v.Get("desired").Exists() {
			job.Kind = KindPath
		}
	}

	switch job.Kind {
	case KindPath:
		job.Path = &mixer.PathRequest{
			Desired: readStrings(v.Get("desired")),
			Initial: readStrings(first(v, "initial", "initial_effects")),
		}
	case KindOptimize:
		req := &mixer.OptimizeRequest{
			Product:  first(v, "product", "drug_type").String(),
			GrowTent: first(v, "grow_tent", "prod_options.grow_tent").Bool(),
			PGR:      first(v, "pgr", "prod_options.pgr").Bool(),
			Strain:   first(v, "strain", "prod_options.strain").String(),
			Quality:  int(first(v, "quality", "prod_options.quality").Int()),
			Initial:  readStrings(first(v, "initial", "initial_effects")),
		}
		if d := v.Get("depth"); d.Exists() {
			depth := int(d.Int())
			req.Depth = &depth
		}
		job.Optimize = req
	default:
		return Job{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown job kind %q", job.Kind), map[string]any{"id": job.ID})
	}
	return job, nil
}

// first returns the first of paths present in v.
func first(v gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func readStrings(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}
	if !v.IsArray() {
		return []string{v.String()}
	}
	arr := v.Array()
	out := make([]string, len(arr))
	for i, item := range arr {
		out[i] = item.String()
	}
	return out
}
