// Package schema derives the model's input schema from the loaded artifacts.
package schema

import (
	"sort"
	"strings"
)

// featureNameBlacklist holds lowercase column names that look like targets or
// identifiers and must never be inferred as input features.
var featureNameBlacklist = map[string]struct{}{
	"id":                       {},
	"target":                   {},
	"label":                    {},
	"labels":                   {},
	"y":                        {},
	"performance":              {},
	"performance_label":        {},
	"performance_labels":       {},
	"performance_dummy":        {},
	"performance_dummy_labels": {},
}

// ResolveInput carries the feature-name hints declared by the artifacts.
type ResolveInput struct {
	ModelNames  []string // model-declared input columns, nil when unknown
	ModelCount  int      // model-declared input width, 0 when unknown
	ScalerNames []string // scaler-declared input columns, nil when unknown
	EncoderKeys []string // encoded column names
}

// Resolve returns the definitive ordered feature-name list via a priority
// cascade:
//
//  1. model-declared names, verbatim;
//  2. scaler-declared names when their count matches the model's declared
//     width;
//  3. the union of encoder keys and scaler names minus the blacklist,
//     ordered scaler-first then lexicographic, truncated to the model width
//     when known.
//
// The result has no duplicates and is stable across calls.
func Resolve(in ResolveInput) []string {
	if len(in.ModelNames) > 0 {
		return dedupe(in.ModelNames)
	}

	if len(in.ScalerNames) > 0 && in.ModelCount > 0 && len(in.ScalerNames) == in.ModelCount {
		return dedupe(in.ScalerNames)
	}

	union := make(map[string]struct{}, len(in.EncoderKeys)+len(in.ScalerNames))
	for _, k := range in.EncoderKeys {
		union[k] = struct{}{}
	}
	for _, k := range in.ScalerNames {
		union[k] = struct{}{}
	}
	for name := range union {
		if name == "" {
			delete(union, name)
			continue
		}
		if _, blocked := featureNameBlacklist[strings.ToLower(name)]; blocked {
			delete(union, name)
		}
	}

	// scaler-declared order first, then the remainder sorted
	ordered := make([]string, 0, len(union))
	seen := make(map[string]struct{}, len(union))
	for _, name := range in.ScalerNames {
		if _, ok := union[name]; ok {
			if _, dup := seen[name]; dup {
				continue
			}
			ordered = append(ordered, name)
			seen[name] = struct{}{}
		}
	}
	rest := make([]string, 0, len(union))
	for name := range union {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	if in.ModelCount > 0 && len(ordered) > in.ModelCount {
		ordered = ordered[:in.ModelCount]
	}
	return ordered
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		out = append(out, n)
		seen[n] = struct{}{}
	}
	return out
}
