package output

import (
	"encoding/json"
	"io"

	"cdcheck/internal/data"
)

type jsonDependency struct {
	Name            string         `json:"name"`
	Version         string         `json:"version"`
	Ecosystem       data.Ecosystem `json:"ecosystem"`
	DeclaredLicense string         `json:"declared_license,omitempty"`
	LicenseError    string         `json:"license_error,omitempty"`
	Score           uint64         `json:"score"`
	Provenance      bool           `json:"provenance"`
	ScoreType       data.ScoreType `json:"score_type"`
	License         data.Outcome   `json:"license"`
	ScoreCheck      data.Outcome   `json:"score_check"`
	Passed          bool           `json:"passed"`
	URL             string         `json:"url"`
}

type jsonReport struct {
	RunID        string           `json:"run_id,omitempty"`
	Total        int              `json:"total"`
	Failed       int              `json:"failed"`
	Dependencies []jsonDependency `json:"dependencies"`
}

func writeJSON(w io.Writer, rep Report, opts Options) error {
	out := jsonReport{RunID: rep.RunID, Dependencies: []jsonDependency{}}
	for _, r := range buildRows(rep.Dependencies, opts) {
		jd := jsonDependency{
			Name:            r.dep.Name,
			Version:         r.dep.VersionString(),
			Ecosystem:       r.dep.Ecosystem,
			DeclaredLicense: r.license,
			Score:           r.score,
			Provenance:      r.dep.ClearlyDefined != nil,
			ScoreType:       opts.ScoreType,
			License:         r.dep.PassedLicense,
			ScoreCheck:      r.dep.PassedScore,
			Passed:          r.dep.Passed(),
			URL:             r.url,
		}
		if r.licenseErr != nil {
			jd.LicenseError = r.licenseErr.Error()
		}
		if !jd.Passed {
			out.Failed++
		}
		out.Dependencies = append(out.Dependencies, jd)
	}
	out.Total = len(out.Dependencies)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
