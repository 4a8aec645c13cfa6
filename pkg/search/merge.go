package search

import "sort"

// singleSourcePenalty discounts results only one branch found, reflecting
// the lower confidence of an uncorroborated match.
const singleSourcePenalty = 0.7

// Merge fuses independently scored semantic and keyword lists into one.
// A key present in both gets the weighted sum of its scores and the union
// of matched keywords, with record fields taken from the semantic side.
// A key present in only one list keeps its score times the single-source
// penalty. Every key in the union of the inputs appears exactly once; the
// output is unsorted, ordering is the caller's concern.
func Merge(semantic, keyword []ScoredResult, semanticWeight, keywordWeight float64) []ScoredResult {
	semanticByKey := make(map[string]ScoredResult, len(semantic))
	for _, r := range semantic {
		semanticByKey[r.MemoryKey] = r
	}
	keywordByKey := make(map[string]ScoredResult, len(keyword))
	for _, r := range keyword {
		keywordByKey[r.MemoryKey] = r
	}

	merged := make([]ScoredResult, 0, len(semanticByKey)+len(keywordByKey))

	for key, sem := range semanticByKey {
		out := sem
		if kw, ok := keywordByKey[key]; ok {
			out.Score = clamp01(sem.Score*semanticWeight + kw.Score*keywordWeight)
			out.MatchedKeywords = unionKeywords(sem.MatchedKeywords, kw.MatchedKeywords)
		} else {
			out.Score = clamp01(sem.Score * singleSourcePenalty)
		}
		merged = append(merged, out)
	}

	for key, kw := range keywordByKey {
		if _, ok := semanticByKey[key]; ok {
			continue
		}
		out := kw
		out.Score = clamp01(kw.Score * singleSourcePenalty)
		merged = append(merged, out)
	}

	return merged
}

func unionKeywords(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a)+len(b))
	for _, kw := range a {
		set[kw] = struct{}{}
	}
	for _, kw := range b {
		set[kw] = struct{}{}
	}
	union := make([]string, 0, len(set))
	for kw := range set {
		union = append(union, kw)
	}
	sort.Strings(union)
	return union
}
