package matching

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Source tags where a candidate came from.
type Source string

// Source values.
const (
	SourceOwn    Source = "own"
	SourcePublic Source = "public"
)

// OwnBonus is subtracted from the score of the importer's own characters.
const OwnBonus = 0.25

// Candidate is a character a name may resolve to.
type Candidate struct {
	ID     string
	Name   string
	Source Source
}

// Reason explains the outcome of a match.
type Reason string

// Reason values.
const (
	ReasonMatched        Reason = "matched"
	ReasonEmptyName      Reason = "empty_name"
	ReasonNoCandidates   Reason = "no_candidates"
	ReasonAboveThreshold Reason = "above_threshold"
	ReasonAmbiguous      Reason = "ambiguous"
)

// Result is the outcome of resolving one name.
type Result struct {
	Target    string
	Candidate Candidate
	Score     float64
	Threshold float64
	Reason    Reason
	Tied      []Candidate
}

// Matched reports whether a single candidate was accepted.
func (r Result) Matched() bool { return r.Reason == ReasonMatched }

// Threshold returns the highest accepted score for a normalized target.
func Threshold(normalizedTarget string) float64 {
	n := utf8.RuneCountInString(normalizedTarget)
	return math.Max(2, math.Ceil(0.35*float64(n)))
}

// Score is the edit distance between normalized names, less OwnBonus for
// the importer's own characters. Lower is better.
func Score(normalizedTarget string, c Candidate) float64 {
	score := float64(levenshtein.ComputeDistance(normalizedTarget, Normalize(c.Name)))
	if c.Source == SourceOwn {
		score -= OwnBonus
	}
	return score
}

// PickBestMatch resolves target against candidates. It accepts the lowest
// scoring candidate only when its score is within Threshold and no other
// candidate ties with it exactly.
func PickBestMatch(target string, candidates []Candidate) Result {
	normalized := Normalize(target)
	result := Result{Target: target, Threshold: Threshold(normalized)}
	if normalized == "" {
		result.Reason = ReasonEmptyName
		return result
	}
	if len(candidates) == 0 {
		result.Reason = ReasonNoCandidates
		return result
	}

	best := math.Inf(1)
	var tied []Candidate
	for _, c := range candidates {
		s := Score(normalized, c)
		switch {
		case s < best:
			best = s
			tied = []Candidate{c}
		case s == best:
			tied = append(tied, c)
		}
	}

	result.Score = best
	result.Candidate = tied[0]
	switch {
	case best > result.Threshold:
		result.Reason = ReasonAboveThreshold
	case len(tied) > 1:
		result.Reason = ReasonAmbiguous
		result.Tied = tied
		result.Candidate = Candidate{}
	default:
		result.Reason = ReasonMatched
	}
	return result
}

// MergeCandidates unions own and public candidates, de-duplicated by id.
// An own entry wins over a public entry for the same character.
func MergeCandidates(own, public []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(own)+len(public))
	out := make([]Candidate, 0, len(own)+len(public))
	for _, group := range [][]Candidate{own, public} {
		for _, c := range group {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
