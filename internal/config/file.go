package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"cdcheck/internal/flags"
)

// File is the YAML policy file. Pointer fields distinguish "unset" from the
// zero value so the file never overrides a default it does not mention.
//
//	score: 75
//	score_type: licensed
//	approve_osi: true
//	approve: [MIT, Apache-2.0]
//	ignore: [ring]
//	exclude: [my-workspace-crate]
type File struct {
	Score        *uint64  `yaml:"score"`
	ScoreType    string   `yaml:"score_type"`
	Exclude      []string `yaml:"exclude"`
	Ignore       []string `yaml:"ignore"`
	Approve      []string `yaml:"approve"`
	ApproveOSI   *bool    `yaml:"approve_osi"`
	ApproveAll   *bool    `yaml:"approve_all"`
	Lax          *bool    `yaml:"lax"`
	OutputFormat string   `yaml:"output_format"`
	Link         *bool    `yaml:"link"`
	Concurrency  *int     `yaml:"concurrency"`
	APIURL       string   `yaml:"api_url"`
}

// LoadFile reads a policy file. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return &f, nil
}

// LoadOptionalFile is LoadFile for the implicit default file: a missing file
// yields (nil, nil).
func LoadOptionalFile(path string) (*File, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return LoadFile(path)
}

// ApplyTo copies file values into c for every flag the user did not set.
// List values are appended to the flag values.
func (f *File) ApplyTo(c *Config, changed func(flag string) bool) {
	if f == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if f.Score != nil && !changed(flags.FlagScore) {
		c.Policy.Score = *f.Score
	}
	if f.ScoreType != "" && !changed(flags.FlagScoreType) {
		c.Policy.ScoreType = f.ScoreType
	}
	if f.ApproveOSI != nil && !changed(flags.FlagApproveOSI) {
		c.Policy.ApproveOSI = *f.ApproveOSI
	}
	if f.ApproveAll != nil && !changed(flags.FlagApproveAll) {
		c.Policy.ApproveAll = *f.ApproveAll
	}
	if f.Lax != nil && !changed(flags.FlagLax) {
		c.Policy.Lax = *f.Lax
	}
	if f.OutputFormat != "" && !changed(flags.FlagOutputFormat) {
		c.Output.Format = f.OutputFormat
	}
	if f.Link != nil && !changed(flags.FlagLink) {
		c.Output.Link = *f.Link
	}
	if f.Concurrency != nil && !changed(flags.FlagConcurrency) {
		c.Runtime.Concurrency = *f.Concurrency
	}
	if f.APIURL != "" && !changed(flags.FlagAPIURL) {
		c.Runtime.APIURL = f.APIURL
	}

	c.Input.Exclude = append(c.Input.Exclude, f.Exclude...)
	c.Policy.Ignore = append(c.Policy.Ignore, f.Ignore...)
	c.Policy.Approve = append(c.Policy.Approve, f.Approve...)
}
