package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sort"

	"overrider/internal/diag"
	"overrider/internal/source"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Related   []sarifLocation `json:"relatedLocations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	Physical sarifPhysical `json:"physicalLocation"`
	Message  *sarifMessage `json:"message,omitempty"`
}

type sarifPhysical struct {
	Artifact sarifArtifact `json:"artifactLocation"`
	Region   *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifFix struct {
	Description sarifMessage          `json:"description"`
	Changes     []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	Artifact     sarifArtifact      `json:"artifactLocation"`
	Replacements []sarifReplacement `json:"replacements"`
}

type sarifReplacement struct {
	Deleted  sarifRegion   `json:"deletedRegion"`
	Inserted *sarifMessage `json:"insertedContent,omitempty"`
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0).
// Один run, правила собираются из кодов встреченных диагностик.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion}},
		Results: make([]sarifResult, 0, bag.Len()),
	}
	if run.Tool.Driver.Name == "" {
		run.Tool.Driver.Name = "overrider"
	}
	run.Invocations = []sarifInvocation{{
		Arguments:           meta.InvocationArgs,
		ExecutionSuccessful: !bag.HasErrors(),
	}}

	rules := map[diag.Code]bool{}
	for _, d := range bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		rules[d.Code] = true
		res := sarifResult{
			RuleID:  d.Code.ID(),
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if loc, ok := sarifLocate(fs, d.Primary); ok {
			res.Locations = []sarifLocation{loc}
		}
		for _, n := range d.Notes {
			if loc, ok := sarifLocate(fs, n.Span); ok {
				loc.Message = &sarifMessage{Text: n.Msg}
				res.Related = append(res.Related, loc)
			}
		}
		for _, f := range d.Fixes {
			res.Fixes = append(res.Fixes, sarifFixOf(fs, f))
		}
		run.Results = append(run.Results, res)
	}

	codes := make([]diag.Code, 0, len(rules))
	for c := range rules {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, c := range codes {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
			ID:               c.ID(),
			ShortDescription: sarifMessage{Text: c.Title()},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}})
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifLocate(fs *source.FileSet, sp source.Span) (sarifLocation, bool) {
	region, uri, ok := sarifRegionOf(fs, sp)
	if !ok {
		return sarifLocation{}, false
	}
	return sarifLocation{Physical: sarifPhysical{Artifact: sarifArtifact{URI: uri}, Region: &region}}, true
}

func sarifRegionOf(fs *source.FileSet, sp source.Span) (sarifRegion, string, bool) {
	if fs == nil {
		return sarifRegion{}, "", false
	}
	f := fs.Get(sp.File)
	if f == nil {
		return sarifRegion{}, "", false
	}
	start, end := fs.Resolve(sp)
	return sarifRegion{
		StartLine:   start.Line,
		StartColumn: start.Col,
		EndLine:     end.Line,
		EndColumn:   end.Col,
		ByteOffset:  sp.Start,
		ByteLength:  sp.Len(),
	}, sarifURI(f, fs.BaseDir()), true
}

func sarifURI(f *source.File, base string) string {
	if base == "" || !filepath.IsAbs(f.Path) {
		return filepath.ToSlash(f.Path)
	}
	return f.FormatPath(source.PathRelative, base)
}

func sarifFixOf(fs *source.FileSet, f diag.Fix) sarifFix {
	out := sarifFix{Description: sarifMessage{Text: f.Title}}
	byURI := map[string]int{}
	for _, e := range f.Edits {
		region, uri, ok := sarifRegionOf(fs, e.Span)
		if !ok {
			continue
		}
		idx, seen := byURI[uri]
		if !seen {
			idx = len(out.Changes)
			byURI[uri] = idx
			out.Changes = append(out.Changes, sarifArtifactChange{Artifact: sarifArtifact{URI: uri}})
		}
		rep := sarifReplacement{Deleted: region}
		if e.NewText != "" {
			rep.Inserted = &sarifMessage{Text: e.NewText}
		}
		out.Changes[idx].Replacements = append(out.Changes[idx].Replacements, rep)
	}
	return out
}
